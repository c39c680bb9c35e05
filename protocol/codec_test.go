package protocol

import (
	"compoker/domain"
	apperrors "compoker/errors"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode_MergesDiscriminantIntoFlatObject(t *testing.T) {
	req := require.New(t)

	data, err := Encode(JoinSessionRequest{SessionID: "s1", ParticipantName: "alice"})
	req.NoError(err)

	var fields map[string]any
	req.NoError(json.Unmarshal(data, &fields))
	req.Equal("JoinSessionRequest", fields["type"])
	req.Equal("s1", fields["sessionId"])
	req.Equal("alice", fields["participantName"])
}

func TestEncode_FieldlessMessage(t *testing.T) {
	req := require.New(t)

	data, err := Encode(Ping{})
	req.NoError(err)
	req.JSONEq(`{"type":"Ping"}`, string(data))
}

func TestDecode_RoundTripsEveryClientRequest(t *testing.T) {
	req := require.New(t)
	messages := []Message{
		CreateSessionRequest{ParticipantName: "alice"},
		JoinSessionRequest{SessionID: "s1", ParticipantName: "bob"},
		TopicChangeRequest{TopicRef: "POKER-7"},
		VoteRequest{IssueID: "i1", Vote: domain.VoteFive},
		Pong{},
	}

	for _, msg := range messages {
		data, err := Encode(msg)
		req.NoError(err)

		decoded, err := Decode(data)
		req.NoError(err)
		req.Equal(msg, decoded)
	}
}

func TestDecode_ServerAnnouncement(t *testing.T) {
	req := require.New(t)

	data := []byte(`{"type":"VotingResultsRevelation","issueId":"i1","votes":{"alice":"Three","bob":"Eight"},"outcome":"Unknown"}`)
	decoded, err := Decode(data)

	req.NoError(err)
	revelation, ok := decoded.(VotingResultsRevelation)
	req.True(ok)
	req.Equal("i1", revelation.IssueID)
	req.Equal(domain.VoteThree, revelation.Votes["alice"])
	req.Equal(domain.VoteUnknown, revelation.Outcome)
}

func TestDecode_UnknownDiscriminant(t *testing.T) {
	_, err := Decode([]byte(`{"type":"SelfDestructRequest"}`))

	require.ErrorIs(t, err, apperrors.ErrUnknownMessageType)
}

func TestDecode_MalformedFrame(t *testing.T) {
	_, err := Decode([]byte(`{"type":`))

	require.Error(t, err)
}

func TestDecode_MissingRequiredField(t *testing.T) {
	// participantName is required on a create request
	_, err := Decode([]byte(`{"type":"CreateSessionRequest"}`))

	require.Error(t, err)
}

func TestDecode_SecretVoteRejected(t *testing.T) {
	_, err := Decode([]byte(`{"type":"VoteRequest","issueId":"i1","vote":"Secret"}`))

	require.Error(t, err)
}

func TestDecode_NonCastableVoteRejected(t *testing.T) {
	_, err := Decode([]byte(`{"type":"VoteRequest","issueId":"i1","vote":"Four"}`))

	require.Error(t, err)
}
