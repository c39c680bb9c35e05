package runtime

import (
	"context"
	"time"
)

// Snapshot is a read-only copy of the registry state, taken inside the
// mailbox goroutine so it is always consistent.
type Snapshot struct {
	ConnectedClients int               `json:"connected_clients"`
	Sessions         []SessionSnapshot `json:"sessions"`
}

type SessionSnapshot struct {
	ID           string     `json:"id"`
	Participants []string   `json:"participants"`
	IssueID      string     `json:"issue_id"`
	IssueState   string     `json:"issue_state"`
	TopicRef     string     `json:"topic_ref,omitempty"`
	VotesCast    int        `json:"votes_cast"`
	EmptySince   *time.Time `json:"empty_since,omitempty"`
}

// TakeSnapshot queues a snapshot request and waits for the reply.
func (r *Registry) TakeSnapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := r.Dispatch(ctx, SnapshotCommand{Reply: reply}); err != nil {
		return Snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (r *Registry) snapshot() Snapshot {
	snap := Snapshot{
		ConnectedClients: len(r.clients),
		Sessions:         make([]SessionSnapshot, 0, len(r.sessions)),
	}
	for _, session := range r.sessions {
		entry := SessionSnapshot{
			ID:           session.ID,
			Participants: session.ParticipantNames(),
			IssueID:      session.CurrentIssue.ID,
			IssueState:   string(session.CurrentIssue.State),
			TopicRef:     session.CurrentIssue.TopicRef,
			VotesCast:    len(session.CurrentIssue.Votes),
		}
		if since, ok := r.emptySince[session.ID]; ok {
			emptySince := since
			entry.EmptySince = &emptySince
		}
		snap.Sessions = append(snap.Sessions, entry)
	}
	return snap
}
