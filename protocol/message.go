// Package protocol defines the tagged JSON messages exchanged between
// clients and the session coordinator. The discriminant field is "type";
// all other fields sit flat next to it.
package protocol

import (
	"compoker/domain"
	apperrors "compoker/errors"
	"fmt"
)

// Type is the wire discriminant of one message variant.
type Type string

const (
	TypeCreateSessionRequest         Type = "CreateSessionRequest"
	TypeJoinSessionRequest           Type = "JoinSessionRequest"
	TypeSessionInfoResponse          Type = "SessionInfoResponse"
	TypeSessionJoinErrorResponse     Type = "SessionJoinErrorResponse"
	TypeParticipantJoinAnnouncement  Type = "ParticipantJoinAnnouncement"
	TypeParticipantLeaveAnnouncement Type = "ParticipantLeaveAnnouncement"
	TypeTopicChangeRequest           Type = "TopicChangeRequest"
	TypeVotingIssueAnnouncement      Type = "VotingIssueAnnouncement"
	TypeVoteRequest                  Type = "VoteRequest"
	TypeVoteReceiptAnnouncement      Type = "VoteReceiptAnnouncement"
	TypeVotingResultsRevelation      Type = "VotingResultsRevelation"

	// Ping and Pong are transport liveness frames. They never reach the
	// registry.
	TypePing Type = "Ping"
	TypePong Type = "Pong"
)

// Message is one wire message variant.
type Message interface {
	MessageType() Type
}

// JoinError enumerates the typed failures of a join attempt.
type JoinError string

const (
	JoinErrorUnknownSession JoinError = "UnknownSession"
	JoinErrorNameTaken      JoinError = "ParticipantNameTaken"
)

// CreateSessionRequest opens a new session with the sender as the only
// participant.
type CreateSessionRequest struct {
	ParticipantName string `json:"participantName" validate:"required,max=64"`
}

func (CreateSessionRequest) MessageType() Type { return TypeCreateSessionRequest }

// JoinSessionRequest adds the sender to an existing session.
type JoinSessionRequest struct {
	SessionID       string `json:"sessionId" validate:"required"`
	ParticipantName string `json:"participantName" validate:"required,max=64"`
}

func (JoinSessionRequest) MessageType() Type { return TypeJoinSessionRequest }

// SessionInfoResponse carries the recipient's blinded view of a session
// after a successful create or join.
type SessionInfoResponse struct {
	SessionID           string             `json:"sessionId"`
	CurrentIssue        domain.VotingIssue `json:"currentIssue"`
	CurrentParticipants []string           `json:"currentParticipants"`
}

func (SessionInfoResponse) MessageType() Type { return TypeSessionInfoResponse }

type SessionJoinErrorResponse struct {
	SessionID string    `json:"sessionId"`
	Error     JoinError `json:"error"`
}

func (SessionJoinErrorResponse) MessageType() Type { return TypeSessionJoinErrorResponse }

type ParticipantJoinAnnouncement struct {
	ParticipantName string `json:"participantName"`
}

func (ParticipantJoinAnnouncement) MessageType() Type { return TypeParticipantJoinAnnouncement }

type ParticipantLeaveAnnouncement struct {
	ParticipantName string `json:"participantName"`
}

func (ParticipantLeaveAnnouncement) MessageType() Type { return TypeParticipantLeaveAnnouncement }

// TopicChangeRequest replaces the session's current issue with a fresh
// one referencing the given topic. The session is the one the sending
// connection is attached to; it never travels on the wire.
type TopicChangeRequest struct {
	TopicRef string `json:"topicRef" validate:"max=256"`
}

func (TopicChangeRequest) MessageType() Type { return TypeTopicChangeRequest }

// VotingIssueAnnouncement tells every participant about a replaced issue.
type VotingIssueAnnouncement struct {
	Issue domain.VotingIssue `json:"issue"`
}

func (VotingIssueAnnouncement) MessageType() Type { return TypeVotingIssueAnnouncement }

type VoteRequest struct {
	IssueID string      `json:"issueId" validate:"required"`
	Vote    domain.Vote `json:"vote" validate:"required"`
}

func (VoteRequest) MessageType() Type { return TypeVoteRequest }

// VoteReceiptAnnouncement names the voter but never the value.
type VoteReceiptAnnouncement struct {
	ParticipantName string `json:"participantName"`
	IssueID         string `json:"issueId"`
}

func (VoteReceiptAnnouncement) MessageType() Type { return TypeVoteReceiptAnnouncement }

// VotingResultsRevelation exposes the full unblinded vote map and the
// resolved outcome once every participant has voted.
type VotingResultsRevelation struct {
	IssueID string                 `json:"issueId"`
	Votes   map[string]domain.Vote `json:"votes"`
	Outcome domain.Vote            `json:"outcome"`
}

func (VotingResultsRevelation) MessageType() Type { return TypeVotingResultsRevelation }

type Ping struct{}

func (Ping) MessageType() Type { return TypePing }

type Pong struct{}

func (Pong) MessageType() Type { return TypePong }

// unknownType wraps the sentinel for a frame whose discriminant does not
// name any known variant.
func unknownType(t Type) error {
	return fmt.Errorf("%w: %q", apperrors.ErrUnknownMessageType, t)
}
