package runtime

import (
	"compoker/contract"
	"compoker/domain"
	"time"
)

// Command is a single registry operation queued on the mailbox. Commands
// are applied one at a time in arrival order; nothing outside the
// registry goroutine ever touches session state.
type Command interface {
	isCommand()
}

// ConnectCommand registers the outbound sink of a new connection. The
// assigned participant id is sent on Reply.
type ConnectCommand struct {
	Sink  contract.MessageSink
	Reply chan string
}

// DisconnectCommand removes a participant's sink and, when SessionID is
// set, its session membership. The transport sends it exactly once per
// connection, on every exit path.
type DisconnectCommand struct {
	ParticipantID string
	SessionID     string
}

// LeaveSessionCommand removes a participant from a session while its
// connection stays open and routable. The transport sends it when a
// connection attached to one session asks to create or join another;
// a connection belongs to at most one session at a time.
type LeaveSessionCommand struct {
	ParticipantID string
	SessionID     string
}

type CreateSessionCommand struct {
	ParticipantID   string
	ParticipantName string
}

type JoinSessionCommand struct {
	ParticipantID   string
	SessionID       string
	ParticipantName string
}

type ChangeTopicCommand struct {
	ParticipantID string
	SessionID     string
	TopicRef      string
}

type CastVoteCommand struct {
	ParticipantID string
	SessionID     string
	IssueID       string
	Vote          domain.Vote
}

// SweepCommand asks the registry to evict sessions that have been empty
// longer than the eviction window, judged against Now.
type SweepCommand struct {
	Now time.Time
}

// SnapshotCommand asks the registry for a read-only copy of its state,
// sent on Reply. Used by the debug endpoint.
type SnapshotCommand struct {
	Reply chan Snapshot
}

func (ConnectCommand) isCommand()       {}
func (DisconnectCommand) isCommand()    {}
func (LeaveSessionCommand) isCommand()  {}
func (CreateSessionCommand) isCommand() {}
func (JoinSessionCommand) isCommand()   {}
func (ChangeTopicCommand) isCommand()   {}
func (CastVoteCommand) isCommand()      {}
func (SweepCommand) isCommand()         {}
func (SnapshotCommand) isCommand()      {}
