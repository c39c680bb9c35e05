package domain

import (
	"strings"

	"github.com/google/uuid"
)

// VotingState is the lifecycle phase of a VotingIssue.
type VotingState string

const (
	// StateOpening means the issue exists but no vote has been cast yet.
	StateOpening VotingState = "Opening"
	// StateVoting means at least one vote has been cast.
	StateVoting VotingState = "Voting"
	// StateClosing means every participant voted and results are revealed.
	StateClosing VotingState = "Closing"
)

// VotingIssue is the single topic currently open for estimation within a
// session. Votes are keyed by participant name.
type VotingIssue struct {
	ID       string          `json:"id"`
	State    VotingState     `json:"state"`
	TopicRef string          `json:"topicRef,omitempty"`
	Outcome  *Vote           `json:"outcome,omitempty"`
	Votes    map[string]Vote `json:"votes"`
}

// NewVotingIssue creates a fresh issue in Opening state with no votes.
// The id is new on every call; votes never carry over between issues.
func NewVotingIssue(topicRef string) *VotingIssue {
	return &VotingIssue{
		ID:       uuid.NewString(),
		State:    StateOpening,
		TopicRef: strings.TrimSpace(topicRef),
		Votes:    make(map[string]Vote),
	}
}

// RecordVote inserts or overwrites the vote of one participant and moves
// an Opening issue to Voting. Calls on a Closing issue are ignored.
func (i *VotingIssue) RecordVote(participantName string, v Vote) {
	if i.State == StateClosing {
		return
	}
	i.Votes[participantName] = v
	if i.State == StateOpening {
		i.State = StateVoting
	}
}

// Close transitions the issue to Closing and records the resolved outcome.
func (i *VotingIssue) Close() {
	outcome := ResolveOutcome(i.Votes)
	i.State = StateClosing
	i.Outcome = &outcome
}

// BlindedFor renders a copy of the issue for one recipient. Before the
// Closing state every vote except the recipient's own is replaced by
// VoteSecret; once Closing the issue is rendered as is. The receiver is
// never mutated.
func (i *VotingIssue) BlindedFor(recipientName string) VotingIssue {
	view := *i
	view.Votes = make(map[string]Vote, len(i.Votes))
	for name, vote := range i.Votes {
		if i.State != StateClosing && name != recipientName {
			view.Votes[name] = VoteSecret
		} else {
			view.Votes[name] = vote
		}
	}
	return view
}
