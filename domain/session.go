package domain

import (
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Session is a room grouping participants estimating a shared sequence of
// topics. Exactly one issue is current at any time. Session identity is
// independent of any participant and outlives individual connections.
type Session struct {
	ID           string
	Participants []Participant
	CurrentIssue *VotingIssue
}

// NewSession creates a session containing only its creator and a fresh
// issue without a topic.
func NewSession(creator Participant) *Session {
	return &Session{
		ID:           uuid.NewString(),
		Participants: []Participant{creator},
		CurrentIssue: NewVotingIssue(""),
	}
}

func (s *Session) AddParticipant(p Participant) {
	s.Participants = append(s.Participants, p)
}

// RemoveParticipant removes the participant with the given id, keeping
// join order, and returns it.
func (s *Session) RemoveParticipant(participantID string) (Participant, bool) {
	for idx, p := range s.Participants {
		if p.ID == participantID {
			s.Participants = append(s.Participants[:idx], s.Participants[idx+1:]...)
			return p, true
		}
	}
	return Participant{}, false
}

// HasName reports whether a current participant already carries the name.
// The match is exact and case-sensitive.
func (s *Session) HasName(name string) bool {
	return lo.ContainsBy(s.Participants, func(p Participant) bool {
		return p.Name == name
	})
}

// NameOf resolves a participant id to its display name.
func (s *Session) NameOf(participantID string) (string, bool) {
	for _, p := range s.Participants {
		if p.ID == participantID {
			return p.Name, true
		}
	}
	return "", false
}

// ParticipantNames returns the display names in join order.
func (s *Session) ParticipantNames() []string {
	return lo.Map(s.Participants, func(p Participant, _ int) string {
		return p.Name
	})
}

// Empty reports whether no participant is left in the session.
func (s *Session) Empty() bool {
	return len(s.Participants) == 0
}

// EveryoneVoted reports whether every current participant's name is a key
// of the current issue's vote map. It is false for an empty session.
func (s *Session) EveryoneVoted() bool {
	if s.Empty() {
		return false
	}
	return lo.EveryBy(s.Participants, func(p Participant) bool {
		_, ok := s.CurrentIssue.Votes[p.Name]
		return ok
	})
}
