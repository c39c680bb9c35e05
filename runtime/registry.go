// Package runtime hosts the session coordinator. It owns every session,
// participant and vote, and serializes all mutation through a single
// mailbox goroutine.
package runtime

import (
	"compoker/contract"
	"compoker/domain"
	"compoker/protocol"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Registry is the single authority over all sessions and the mapping of
// participant identity to outbound sink. It is a contract.Worker: Run
// applies one command to completion before starting the next, so no
// internal locking is needed and no two operations on the same session
// ever interleave.
type Registry struct {
	log            *slog.Logger
	mailbox        chan Command
	clients        map[string]contract.MessageSink
	sessions       map[string]*domain.Session
	emptySince     map[string]time.Time
	evictionWindow time.Duration
	sinkTimeout    time.Duration
}

func NewRegistry(log *slog.Logger, mailboxSize int, evictionWindow, sinkTimeout time.Duration) *Registry {
	return &Registry{
		log:            log,
		mailbox:        make(chan Command, mailboxSize),
		clients:        make(map[string]contract.MessageSink),
		sessions:       make(map[string]*domain.Session),
		emptySince:     make(map[string]time.Time),
		evictionWindow: evictionWindow,
		sinkTimeout:    sinkTimeout,
	}
}

// Dispatch enqueues a command on the mailbox. It blocks until the
// registry accepts it or the context is done; commands are never dropped
// on a full mailbox, the caller waits instead.
func (r *Registry) Dispatch(ctx context.Context, cmd Command) error {
	select {
	case r.mailbox <- cmd:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatch %T: %w", cmd, ctx.Err())
	}
}

// Connect allocates a fresh participant id for the given sink and
// returns it. The transport stamps this id onto every subsequent request
// of the connection; a client-supplied id is never trusted.
func (r *Registry) Connect(ctx context.Context, sink contract.MessageSink) (string, error) {
	reply := make(chan string, 1)
	if err := r.Dispatch(ctx, ConnectCommand{Sink: sink, Reply: reply}); err != nil {
		return "", err
	}
	select {
	case id := <-reply:
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Run processes mailbox commands until the context is canceled.
func (r *Registry) Run(ctx context.Context) error {
	r.log.Info("Registry started")
	for {
		select {
		case <-ctx.Done():
			r.log.Info("Registry stopping", "open_sessions", len(r.sessions), "connected_clients", len(r.clients))
			return nil
		case cmd := <-r.mailbox:
			r.apply(ctx, cmd)
		}
	}
}

func (r *Registry) apply(ctx context.Context, cmd Command) {
	switch c := cmd.(type) {
	case ConnectCommand:
		r.handleConnect(c)
	case DisconnectCommand:
		r.handleDisconnect(ctx, c)
	case LeaveSessionCommand:
		r.removeFromSession(ctx, c.ParticipantID, c.SessionID)
	case CreateSessionCommand:
		r.handleCreateSession(ctx, c)
	case JoinSessionCommand:
		r.handleJoinSession(ctx, c)
	case ChangeTopicCommand:
		r.handleChangeTopic(ctx, c)
	case CastVoteCommand:
		r.handleCastVote(ctx, c)
	case SweepCommand:
		r.handleSweep(c.Now)
	case SnapshotCommand:
		c.Reply <- r.snapshot()
	default:
		r.log.Warn("Command not handled", "command", fmt.Sprintf("%T", cmd))
	}
}

func (r *Registry) handleConnect(c ConnectCommand) {
	participantID := uuid.NewString()
	r.clients[participantID] = c.Sink
	c.Reply <- participantID
	r.log.Debug("Participant connected", "participant_id", participantID)
}

func (r *Registry) handleCreateSession(ctx context.Context, c CreateSessionCommand) {
	creator := domain.Participant{ID: c.ParticipantID, Name: c.ParticipantName}
	session := domain.NewSession(creator)
	r.sessions[session.ID] = session
	r.log.Info("Session created", "session_id", session.ID, "creator", c.ParticipantName)
	r.send(ctx, c.ParticipantID, sessionInfoFor(session, creator.Name))
}

func (r *Registry) handleJoinSession(ctx context.Context, c JoinSessionCommand) {
	session, ok := r.sessions[c.SessionID]
	if !ok {
		r.send(ctx, c.ParticipantID, protocol.SessionJoinErrorResponse{
			SessionID: c.SessionID,
			Error:     protocol.JoinErrorUnknownSession,
		})
		return
	}
	if session.HasName(c.ParticipantName) {
		r.send(ctx, c.ParticipantID, protocol.SessionJoinErrorResponse{
			SessionID: c.SessionID,
			Error:     protocol.JoinErrorNameTaken,
		})
		return
	}

	// A rejoin within the grace period keeps the session alive.
	delete(r.emptySince, session.ID)

	present := append([]domain.Participant(nil), session.Participants...)
	session.AddParticipant(domain.Participant{ID: c.ParticipantID, Name: c.ParticipantName})
	r.log.Info("Participant joined", "session_id", session.ID, "name", c.ParticipantName)

	r.send(ctx, c.ParticipantID, sessionInfoFor(session, c.ParticipantName))
	announcement := protocol.ParticipantJoinAnnouncement{ParticipantName: c.ParticipantName}
	for _, p := range present {
		r.send(ctx, p.ID, announcement)
	}
}

func (r *Registry) handleChangeTopic(ctx context.Context, c ChangeTopicCommand) {
	session, ok := r.sessions[c.SessionID]
	if !ok {
		r.log.Debug("Topic change for unknown session", "session_id", c.SessionID)
		return
	}
	if _, member := session.NameOf(c.ParticipantID); !member {
		r.log.Debug("Topic change from non-member", "session_id", c.SessionID, "participant_id", c.ParticipantID)
		return
	}
	topicRef := strings.TrimSpace(c.TopicRef)
	if topicRef == session.CurrentIssue.TopicRef {
		return
	}

	session.CurrentIssue = domain.NewVotingIssue(topicRef)
	r.log.Info("Topic changed", "session_id", session.ID, "issue_id", session.CurrentIssue.ID, "topic_ref", topicRef)
	for _, p := range session.Participants {
		r.send(ctx, p.ID, protocol.VotingIssueAnnouncement{Issue: session.CurrentIssue.BlindedFor(p.Name)})
	}
}

func (r *Registry) handleCastVote(ctx context.Context, c CastVoteCommand) {
	session, ok := r.sessions[c.SessionID]
	if !ok {
		r.log.Debug("Vote for unknown session", "session_id", c.SessionID)
		return
	}
	issue := session.CurrentIssue
	if c.IssueID != issue.ID {
		r.log.Debug("Stale vote dropped", "session_id", session.ID, "issue_id", c.IssueID)
		return
	}
	name, member := session.NameOf(c.ParticipantID)
	if !member {
		r.log.Debug("Vote from non-member dropped", "session_id", session.ID, "participant_id", c.ParticipantID)
		return
	}
	if issue.State == domain.StateClosing {
		r.log.Debug("Vote after reveal dropped", "session_id", session.ID, "issue_id", issue.ID)
		return
	}

	issue.RecordVote(name, c.Vote)
	receipt := protocol.VoteReceiptAnnouncement{ParticipantName: name, IssueID: issue.ID}
	for _, p := range session.Participants {
		r.send(ctx, p.ID, receipt)
	}
	r.maybeReveal(ctx, session)
}

func (r *Registry) handleDisconnect(ctx context.Context, c DisconnectCommand) {
	delete(r.clients, c.ParticipantID)
	r.removeFromSession(ctx, c.ParticipantID, c.SessionID)
}

// removeFromSession takes a participant out of a session's roster and
// lets the remaining participants react: a leave announcement, a reveal
// when the leaver was the last one still expected to vote, or the start
// of the eviction grace period when nobody is left.
func (r *Registry) removeFromSession(ctx context.Context, participantID, sessionID string) {
	session, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	left, ok := session.RemoveParticipant(participantID)
	if !ok {
		return
	}
	r.log.Info("Participant left", "session_id", session.ID, "name", left.Name)

	if session.Empty() {
		// Grace period: transient reconnects must find the session again.
		r.emptySince[session.ID] = time.Now()
		return
	}

	announcement := protocol.ParticipantLeaveAnnouncement{ParticipantName: left.Name}
	for _, p := range session.Participants {
		r.send(ctx, p.ID, announcement)
	}
	// The leaver may have been the only one still expected to vote.
	r.maybeReveal(ctx, session)
}

func (r *Registry) handleSweep(now time.Time) {
	for sessionID, since := range r.emptySince {
		if now.Sub(since) < r.evictionWindow {
			continue
		}
		delete(r.sessions, sessionID)
		delete(r.emptySince, sessionID)
		r.log.Info("Empty session evicted", "session_id", sessionID, "empty_for", now.Sub(since))
	}
}

// maybeReveal closes the current issue and broadcasts the unblinded
// results once every present participant has voted. The Closing guard
// makes the revelation fire at most once per issue.
func (r *Registry) maybeReveal(ctx context.Context, session *domain.Session) {
	issue := session.CurrentIssue
	if issue.State == domain.StateClosing || !session.EveryoneVoted() {
		return
	}
	issue.Close()
	r.log.Info("Votes revealed", "session_id", session.ID, "issue_id", issue.ID, "votes", len(issue.Votes))

	revelation := protocol.VotingResultsRevelation{
		IssueID: issue.ID,
		Votes:   copyVotes(issue.Votes),
		Outcome: *issue.Outcome,
	}
	for _, p := range session.Participants {
		r.send(ctx, p.ID, revelation)
	}
}

// send routes one message to a participant's sink. A missing sink is not
// an error for the registry; the message is logged and dropped.
func (r *Registry) send(ctx context.Context, participantID string, msg protocol.Message) {
	sink, ok := r.clients[participantID]
	if !ok {
		r.log.Debug("No sink for participant, dropping message",
			"participant_id", participantID, "type", msg.MessageType())
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, r.sinkTimeout)
	defer cancel()
	if err := sink.Consume(sendCtx, msg); err != nil {
		r.log.Warn("Failed to deliver message",
			"participant_id", participantID, "type", msg.MessageType(), "error", err)
	}
}

func sessionInfoFor(session *domain.Session, recipientName string) protocol.SessionInfoResponse {
	return protocol.SessionInfoResponse{
		SessionID:           session.ID,
		CurrentIssue:        session.CurrentIssue.BlindedFor(recipientName),
		CurrentParticipants: session.ParticipantNames(),
	}
}

func copyVotes(votes map[string]domain.Vote) map[string]domain.Vote {
	out := make(map[string]domain.Vote, len(votes))
	for name, vote := range votes {
		out[name] = vote
	}
	return out
}
