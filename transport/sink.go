package transport

import (
	"compoker/protocol"
	"context"
)

// wsSink is the outbound channel of one websocket connection. The
// registry goroutine pushes into it; the connection goroutine drains it
// onto the socket.
type wsSink struct {
	messages chan protocol.Message
}

func newWSSink(bufferSize int) *wsSink {
	return &wsSink{messages: make(chan protocol.Message, bufferSize)}
}

// Consume hands a message over to the connection. It blocks until the
// connection accepts it or the registry's delivery timeout fires, so a
// stalled client cannot wedge the coordinator.
func (s *wsSink) Consume(ctx context.Context, msg protocol.Message) error {
	select {
	case s.messages <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
