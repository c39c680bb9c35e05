package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewVotingIssue_StartsOpeningWithNoVotes(t *testing.T) {
	req := require.New(t)

	issue := NewVotingIssue("  POKER-42  ")

	req.NotEmpty(issue.ID)
	req.Equal(StateOpening, issue.State)
	req.Equal("POKER-42", issue.TopicRef)
	req.Nil(issue.Outcome)
	req.Empty(issue.Votes)
}

func TestNewVotingIssue_FreshIDEveryTime(t *testing.T) {
	first := NewVotingIssue("ABC-1")
	second := NewVotingIssue("ABC-1")

	require.NotEqual(t, first.ID, second.ID)
}

func TestRecordVote_MovesOpeningToVoting(t *testing.T) {
	req := require.New(t)
	issue := NewVotingIssue("")

	issue.RecordVote("alice", VoteFive)

	req.Equal(StateVoting, issue.State)
	req.Equal(VoteFive, issue.Votes["alice"])
}

func TestRecordVote_OverwritesPreviousVote(t *testing.T) {
	req := require.New(t)
	issue := NewVotingIssue("")

	issue.RecordVote("alice", VoteFive)
	issue.RecordVote("alice", VoteEight)

	req.Len(issue.Votes, 1)
	req.Equal(VoteEight, issue.Votes["alice"])
}

func TestRecordVote_IgnoredOnceClosing(t *testing.T) {
	req := require.New(t)
	issue := NewVotingIssue("")
	issue.RecordVote("alice", VoteFive)
	issue.Close()

	issue.RecordVote("bob", VoteThree)

	req.Len(issue.Votes, 1)
	req.NotContains(issue.Votes, "bob")
}

func TestClose_SetsOutcome(t *testing.T) {
	req := require.New(t)
	issue := NewVotingIssue("")
	issue.RecordVote("alice", VoteFive)

	issue.Close()

	req.Equal(StateClosing, issue.State)
	req.NotNil(issue.Outcome)
	req.Equal(ResolveOutcome(issue.Votes), *issue.Outcome)
}

func TestBlindedFor_MasksEveryVoteButTheRecipients(t *testing.T) {
	req := require.New(t)
	issue := NewVotingIssue("")
	issue.RecordVote("alice", VoteThree)
	issue.RecordVote("bob", VoteEight)

	view := issue.BlindedFor("alice")

	// The recipient sees its own vote and Secret for everyone else
	req.Equal(VoteThree, view.Votes["alice"])
	req.Equal(VoteSecret, view.Votes["bob"])
}

func TestBlindedFor_RecipientWithoutVote(t *testing.T) {
	req := require.New(t)
	issue := NewVotingIssue("")
	issue.RecordVote("bob", VoteEight)

	view := issue.BlindedFor("alice")

	req.NotContains(view.Votes, "alice")
	req.Equal(VoteSecret, view.Votes["bob"])
}

func TestBlindedFor_UnblindedOnceClosing(t *testing.T) {
	req := require.New(t)
	issue := NewVotingIssue("")
	issue.RecordVote("alice", VoteThree)
	issue.RecordVote("bob", VoteEight)
	issue.Close()

	view := issue.BlindedFor("alice")

	req.Equal(VoteThree, view.Votes["alice"])
	req.Equal(VoteEight, view.Votes["bob"])
}

func TestBlindedFor_NeverMutatesTheIssue(t *testing.T) {
	req := require.New(t)
	issue := NewVotingIssue("")
	issue.RecordVote("alice", VoteThree)
	issue.RecordVote("bob", VoteEight)

	_ = issue.BlindedFor("alice")

	req.Equal(VoteThree, issue.Votes["alice"])
	req.Equal(VoteEight, issue.Votes["bob"])
}
