package transport

import (
	"compoker/protocol"
	"compoker/runtime"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// disconnectTimeout bounds the final disconnect dispatch when the
// process is already shutting down.
const disconnectTimeout = 5 * time.Second

// conn adapts one websocket to the registry: it obtains a participant id
// before forwarding anything, stamps that id (never a client-supplied
// one) onto every request, tracks which session the connection is
// attached to, and guarantees a single Disconnect on every exit path.
type conn struct {
	mu            sync.Mutex
	sessionID     string
	participantID string
	sock          *websocket.Conn
	sink          *wsSink
	registry      *runtime.Registry
	log           *slog.Logger
	cfg           Config
}

func handleConn(ctx context.Context, log *slog.Logger, sock *websocket.Conn, registry *runtime.Registry, cfg Config) {
	defer func() {
		_ = sock.Close()
	}()

	sink := newWSSink(cfg.SinkBuffer)
	participantID, err := registry.Connect(ctx, sink)
	if err != nil {
		log.Error("Failed to register connection", "error", err)
		return
	}

	c := &conn{
		participantID: participantID,
		sock:          sock,
		sink:          sink,
		registry:      registry,
		log:           log.With("participant_id", participantID),
		cfg:           cfg,
	}
	defer c.disconnect(ctx)

	c.run(ctx)
}

// disconnect delivers the mandatory Disconnect to the registry. It uses
// a detached context so a canceled connection context cannot swallow it.
func (c *conn) disconnect(ctx context.Context) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
	defer cancel()
	cmd := runtime.DisconnectCommand{ParticipantID: c.participantID, SessionID: c.currentSession()}
	if err := c.registry.Dispatch(dctx, cmd); err != nil {
		c.log.Error("Failed to deliver disconnect", "error", err)
	}
}

func (c *conn) setSession(sessionID string) {
	c.mu.Lock()
	c.sessionID = sessionID
	c.mu.Unlock()
}

func (c *conn) currentSession() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// run races the socket against the registry: the connection stays
// receptive to client frames and coordinator broadcasts at the same
// time, and pings the client on the heartbeat interval.
func (c *conn) run(ctx context.Context) {
	inbound := make(chan protocol.Message, 1)
	done := make(chan struct{})
	defer close(done)

	go c.readLoop(inbound, done)

	pingTicker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-inbound:
			if !ok {
				return
			}
			c.handleInbound(ctx, msg)
		case msg := <-c.sink.messages:
			if err := c.write(msg); err != nil {
				c.log.Warn("Failed to write frame, closing connection", "error", err)
				return
			}
		case <-pingTicker.C:
			if err := c.write(protocol.Ping{}); err != nil {
				c.log.Warn("Failed to ping, closing connection", "error", err)
				return
			}
		}
	}
}

// readLoop decodes inbound frames and hands them to run. Any inbound
// traffic counts as liveness: the read deadline is pushed out on every
// frame, and a client silent for longer than the timeout errors the read
// and closes the connection. Malformed frames are logged and skipped,
// with a cap so a broken client cannot spin forever.
func (c *conn) readLoop(inbound chan<- protocol.Message, done <-chan struct{}) {
	defer close(inbound)

	decodeErrors := 0
	for {
		_ = c.sock.SetReadDeadline(time.Now().Add(c.cfg.ClientTimeout))

		var data []byte
		if err := websocket.Message.Receive(c.sock, &data); err != nil {
			if !errors.Is(err, io.EOF) {
				c.log.Debug("Socket read ended", "error", err)
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			decodeErrors++
			c.log.Warn("Dropping malformed frame", "error", err, "count", decodeErrors)
			if decodeErrors >= c.cfg.MaxDecodeErrors {
				c.log.Warn("Too many malformed frames, closing connection")
				return
			}
			continue
		}
		decodeErrors = 0

		select {
		case inbound <- msg:
		case <-done:
			return
		}
	}
}

// handleInbound turns a client frame into a registry command stamped
// with the connection's participant id and tracked session.
func (c *conn) handleInbound(ctx context.Context, msg protocol.Message) {
	var cmd runtime.Command

	switch m := msg.(type) {
	case protocol.CreateSessionRequest:
		c.leaveCurrent(ctx)
		cmd = runtime.CreateSessionCommand{
			ParticipantID:   c.participantID,
			ParticipantName: m.ParticipantName,
		}
	case protocol.JoinSessionRequest:
		c.leaveCurrent(ctx)
		cmd = runtime.JoinSessionCommand{
			ParticipantID:   c.participantID,
			SessionID:       m.SessionID,
			ParticipantName: m.ParticipantName,
		}
	case protocol.TopicChangeRequest:
		sessionID := c.currentSession()
		if sessionID == "" {
			c.log.Debug("Topic change without a session, dropping")
			return
		}
		cmd = runtime.ChangeTopicCommand{
			ParticipantID: c.participantID,
			SessionID:     sessionID,
			TopicRef:      m.TopicRef,
		}
	case protocol.VoteRequest:
		sessionID := c.currentSession()
		if sessionID == "" {
			c.log.Debug("Vote without a session, dropping")
			return
		}
		cmd = runtime.CastVoteCommand{
			ParticipantID: c.participantID,
			SessionID:     sessionID,
			IssueID:       m.IssueID,
			Vote:          m.Vote,
		}
	case protocol.Pong:
		// Liveness already refreshed by the read deadline.
		return
	default:
		c.log.Warn("Unexpected frame from client, dropping", "type", msg.MessageType())
		return
	}

	if err := c.registry.Dispatch(ctx, cmd); err != nil {
		c.log.Warn("Failed to dispatch command", "type", fmt.Sprintf("%T", cmd), "error", err)
	}
}

// leaveCurrent detaches the connection from its session before it
// attaches to another one. Without it the participant would linger in
// the old roster, blocking that session's reveal and eviction forever.
func (c *conn) leaveCurrent(ctx context.Context) {
	sessionID := c.currentSession()
	if sessionID == "" {
		return
	}
	c.setSession("")
	cmd := runtime.LeaveSessionCommand{ParticipantID: c.participantID, SessionID: sessionID}
	if err := c.registry.Dispatch(ctx, cmd); err != nil {
		c.log.Warn("Failed to leave previous session", "error", err)
	}
}

// write encodes and sends one frame, updating the tracked session when
// the registry confirms an attachment.
func (c *conn) write(msg protocol.Message) error {
	if info, ok := msg.(protocol.SessionInfoResponse); ok {
		c.setSession(info.SessionID)
	}

	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	_ = c.sock.SetWriteDeadline(time.Now().Add(c.cfg.ClientTimeout))
	return websocket.Message.Send(c.sock, string(data))
}
