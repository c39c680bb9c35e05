// pokerctl is a terminal participant for an estimation session: it
// creates or joins a session over the websocket endpoint, casts votes,
// and renders the live session state as a table.
package main

import (
	"bufio"
	"compoker/domain"
	"compoker/protocol"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/net/websocket"
)

type Config struct {
	ServerURL string `env:"SERVER_URL,default=ws://127.0.0.1:8080/ws"`
	Origin    string `env:"ORIGIN,default=http://127.0.0.1/"`
}

type view struct {
	mu           sync.Mutex
	sessionID    string
	participants []string
	issue        domain.VotingIssue
	revealed     *protocol.VotingResultsRevelation
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pokerctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	args := os.Args[1:]
	if len(args) < 1 {
		return fmt.Errorf("usage: pokerctl <name> [session-id]")
	}
	name := args[0]

	conn, err := websocket.Dial(config.ServerURL, "", config.Origin)
	if err != nil {
		return fmt.Errorf("connect %s: %w", config.ServerURL, err)
	}
	defer conn.Close()

	var first protocol.Message
	if len(args) > 1 {
		first = protocol.JoinSessionRequest{SessionID: args[1], ParticipantName: name}
	} else {
		first = protocol.CreateSessionRequest{ParticipantName: name}
	}
	if err := send(conn, first); err != nil {
		return err
	}

	state := &view{}
	errChan := make(chan error, 1)
	go func() { errChan <- receive(conn, name, state) }()

	go prompt(conn, state)

	return <-errChan
}

// receive drains server frames, keeps the local view current, and
// answers transport pings.
func receive(conn *websocket.Conn, name string, state *view) error {
	for {
		var data []byte
		if err := websocket.Message.Receive(conn, &data); err != nil {
			return fmt.Errorf("connection closed: %w", err)
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			color.Warn.Println("dropping malformed frame:", err)
			continue
		}

		switch m := msg.(type) {
		case protocol.Ping:
			if err := send(conn, protocol.Pong{}); err != nil {
				return err
			}
			continue
		case protocol.SessionInfoResponse:
			state.mu.Lock()
			state.sessionID = m.SessionID
			state.participants = m.CurrentParticipants
			state.issue = m.CurrentIssue
			state.revealed = nil
			state.mu.Unlock()
			color.Success.Printf("attached to session %s as %s\n", m.SessionID, name)
		case protocol.SessionJoinErrorResponse:
			return fmt.Errorf("cannot join session %s: %s", m.SessionID, m.Error)
		case protocol.ParticipantJoinAnnouncement:
			state.mu.Lock()
			state.participants = append(state.participants, m.ParticipantName)
			state.mu.Unlock()
			color.Info.Printf("%s joined\n", m.ParticipantName)
		case protocol.ParticipantLeaveAnnouncement:
			state.mu.Lock()
			state.participants = remove(state.participants, m.ParticipantName)
			state.mu.Unlock()
			color.Info.Printf("%s left\n", m.ParticipantName)
		case protocol.VotingIssueAnnouncement:
			state.mu.Lock()
			state.issue = m.Issue
			state.revealed = nil
			state.mu.Unlock()
			color.Info.Printf("new topic: %s\n", orDash(m.Issue.TopicRef))
		case protocol.VoteReceiptAnnouncement:
			state.mu.Lock()
			if state.issue.ID == m.IssueID && state.issue.Votes != nil {
				if _, mine := state.issue.Votes[m.ParticipantName]; !mine {
					state.issue.Votes[m.ParticipantName] = domain.VoteSecret
				}
			}
			state.mu.Unlock()
			color.Info.Printf("%s voted\n", m.ParticipantName)
		case protocol.VotingResultsRevelation:
			state.mu.Lock()
			state.revealed = &m
			state.mu.Unlock()
			color.Success.Println("votes revealed")
		default:
			continue
		}
		render(state)
	}
}

// prompt reads commands from stdin: "vote <value>", "topic <ref>", "quit".
func prompt(conn *websocket.Conn, state *view) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vote":
			if len(fields) < 2 {
				color.Warn.Printf("castable votes: %v\n", domain.CastableVotes)
				continue
			}
			vote, err := domain.ParseVote(fields[1])
			if err != nil {
				color.Warn.Println(err)
				continue
			}
			state.mu.Lock()
			issueID := state.issue.ID
			state.mu.Unlock()
			if err := send(conn, protocol.VoteRequest{IssueID: issueID, Vote: vote}); err != nil {
				color.Error.Println(err)
				return
			}
		case "topic":
			topicRef := strings.Join(fields[1:], " ")
			if err := send(conn, protocol.TopicChangeRequest{TopicRef: topicRef}); err != nil {
				color.Error.Println(err)
				return
			}
		case "quit":
			_ = conn.Close()
			return
		default:
			color.Warn.Println("commands: vote <value> | topic <ref> | quit")
		}
	}
}

func render(state *view) {
	state.mu.Lock()
	defer state.mu.Unlock()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Participant", "Vote"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	votes := state.issue.Votes
	outcome := ""
	if state.revealed != nil {
		votes = state.revealed.Votes
		outcome = string(state.revealed.Outcome)
	}
	for _, participant := range state.participants {
		vote, ok := votes[participant]
		if !ok {
			table.Append([]string{participant, "-"})
			continue
		}
		table.Append([]string{participant, string(vote)})
	}

	fmt.Printf("session %s | topic %s | state %s\n",
		state.sessionID, orDash(state.issue.TopicRef), state.issue.State)
	table.Render()
	if outcome != "" {
		color.Success.Printf("outcome: %s\n", outcome)
	}
}

func send(conn *websocket.Conn, msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return websocket.Message.Send(conn, string(data))
}

func remove(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
