package domain

// Participant is one connected identity within a session. The id is
// assigned by the registry on connect; the name only has to be unique
// within its session.
type Participant struct {
	ID   string
	Name string
}
