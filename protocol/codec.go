package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Encode renders a message as a flat JSON object with the "type"
// discriminant merged next to the variant's own fields.
func Encode(msg Message) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", msg.MessageType(), err)
	}
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("flatten %s: %w", msg.MessageType(), err)
	}
	discriminant, err := json.Marshal(msg.MessageType())
	if err != nil {
		return nil, err
	}
	fields["type"] = discriminant
	return json.Marshal(fields)
}

// Decode parses one frame into its concrete message variant. Client
// requests are additionally validated; a validation failure is reported
// as a decode error so the transport treats the frame as malformed.
func Decode(data []byte) (Message, error) {
	var envelope struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	var msg Message
	switch envelope.Type {
	case TypeCreateSessionRequest:
		msg = &CreateSessionRequest{}
	case TypeJoinSessionRequest:
		msg = &JoinSessionRequest{}
	case TypeSessionInfoResponse:
		msg = &SessionInfoResponse{}
	case TypeSessionJoinErrorResponse:
		msg = &SessionJoinErrorResponse{}
	case TypeParticipantJoinAnnouncement:
		msg = &ParticipantJoinAnnouncement{}
	case TypeParticipantLeaveAnnouncement:
		msg = &ParticipantLeaveAnnouncement{}
	case TypeTopicChangeRequest:
		msg = &TopicChangeRequest{}
	case TypeVotingIssueAnnouncement:
		msg = &VotingIssueAnnouncement{}
	case TypeVoteRequest:
		msg = &VoteRequest{}
	case TypeVoteReceiptAnnouncement:
		msg = &VoteReceiptAnnouncement{}
	case TypeVotingResultsRevelation:
		msg = &VotingResultsRevelation{}
	case TypePing:
		msg = &Ping{}
	case TypePong:
		msg = &Pong{}
	default:
		return nil, unknownType(envelope.Type)
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("malformed %s frame: %w", envelope.Type, err)
	}
	if err := validateInbound(msg); err != nil {
		return nil, err
	}
	return deref(msg), nil
}

// validateInbound applies struct validation to client requests. The vote
// of a VoteRequest must additionally be a castable value; Secret in
// particular is a render-only sentinel and never accepted from the wire.
func validateInbound(msg Message) error {
	switch m := msg.(type) {
	case *CreateSessionRequest, *JoinSessionRequest, *TopicChangeRequest:
		if err := validate.Struct(msg); err != nil {
			return fmt.Errorf("invalid %s: %w", msg.MessageType(), err)
		}
	case *VoteRequest:
		if err := validate.Struct(m); err != nil {
			return fmt.Errorf("invalid %s: %w", msg.MessageType(), err)
		}
		if !m.Vote.Castable() {
			return fmt.Errorf("invalid %s: not a castable vote: %q", msg.MessageType(), m.Vote)
		}
	}
	return nil
}

// deref returns the value form of a decoded message so callers can switch
// on concrete types without pointer cases.
func deref(msg Message) Message {
	switch m := msg.(type) {
	case *CreateSessionRequest:
		return *m
	case *JoinSessionRequest:
		return *m
	case *SessionInfoResponse:
		return *m
	case *SessionJoinErrorResponse:
		return *m
	case *ParticipantJoinAnnouncement:
		return *m
	case *ParticipantLeaveAnnouncement:
		return *m
	case *TopicChangeRequest:
		return *m
	case *VotingIssueAnnouncement:
		return *m
	case *VoteRequest:
		return *m
	case *VoteReceiptAnnouncement:
		return *m
	case *VotingResultsRevelation:
		return *m
	case *Ping:
		return *m
	case *Pong:
		return *m
	default:
		return msg
	}
}
