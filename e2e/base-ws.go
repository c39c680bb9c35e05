package e2e

import (
	"fmt"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"golang.org/x/net/websocket"

	"compoker/protocol"
)

type BaseWsSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests.
// Without a target server the whole suite is skipped, so the package is
// safe to run in a plain unit test sweep.
func (s *BaseWsSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerURL == "" {
		s.T().Skip("E2E_SERVER_URL not set, skipping end to end suite")
	}
}

// WithClient dials the server, runs the scenario step and closes the
// socket. The header makes every participant's step findable in logs.
func (s *BaseWsSuite) WithClient(name string, fn func(ws *websocket.Conn)) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	ws, err := websocket.Dial(s.Config.ServerURL, "", s.Config.Origin)
	s.Require().NoError(err, "Failed to connect to websocket server at "+s.Config.ServerURL)
	defer ws.Close()

	fn(ws)
}

// Dial opens a long-lived connection the caller owns; scenarios with
// several concurrent participants keep each socket open across steps.
func (s *BaseWsSuite) Dial(name string) *websocket.Conn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	ws, err := websocket.Dial(s.Config.ServerURL, "", s.Config.Origin)
	s.Require().NoError(err, "Failed to connect to websocket server at "+s.Config.ServerURL)
	return ws
}

// Send encodes one protocol message and puts it on the wire.
func (s *BaseWsSuite) Send(ws *websocket.Conn, msg protocol.Message) {
	data, err := protocol.Encode(msg)
	s.Require().NoError(err)
	if s.Config.DebugJSON {
		s.T().Logf("SEND %s", data)
	}
	s.Require().NoError(websocket.Message.Send(ws, string(data)))
}

// Receive reads frames until a non-heartbeat message arrives, answering
// pings on the way so the server keeps the connection alive.
func (s *BaseWsSuite) Receive(ws *websocket.Conn, timeout time.Duration) protocol.Message {
	deadline := time.Now().Add(timeout)
	for {
		s.Require().NoError(ws.SetReadDeadline(deadline))
		var data []byte
		s.Require().NoError(websocket.Message.Receive(ws, &data))
		if s.Config.DebugJSON {
			s.T().Logf("RECV %s", data)
		}
		msg, err := protocol.Decode(data)
		s.Require().NoError(err)
		if _, ok := msg.(protocol.Ping); ok {
			s.Send(ws, protocol.Pong{})
			continue
		}
		return msg
	}
}
