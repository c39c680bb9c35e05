package e2e

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/net/websocket"

	"compoker/domain"
	"compoker/protocol"
)

const receiveTimeout = 10 * time.Second

type testVotingScenarioSuite struct {
	BaseWsSuite
}

func TestVotingScenarioSuite(t *testing.T) {
	suite.Run(t, &testVotingScenarioSuite{})
}

func (s *testVotingScenarioSuite) TestFullVotingFlow() {
	// Unique names so the scenario can run repeatedly against one server
	aliceName := fmt.Sprintf("alice-%s", uuid.NewString()[:8])
	bobName := fmt.Sprintf("bob-%s", uuid.NewString()[:8])

	alice := s.Dial("Alice connects")
	defer alice.Close()
	bob := s.Dial("Bob connects")
	defer bob.Close()

	var sessionID, issueID string

	s.Run("Step 1: Alice creates a session", func() {
		s.Send(alice, protocol.CreateSessionRequest{ParticipantName: aliceName})

		info, ok := s.Receive(alice, receiveTimeout).(protocol.SessionInfoResponse)
		s.Require().True(ok, "Expected a SessionInfoResponse after create")
		s.Require().NotEmpty(info.SessionID)
		s.Require().Equal([]string{aliceName}, info.CurrentParticipants)
		s.Require().Equal(domain.StateOpening, info.CurrentIssue.State)

		sessionID = info.SessionID
		issueID = info.CurrentIssue.ID
	})

	s.Run("Step 2: Bob joins and Alice is told", func() {
		s.Send(bob, protocol.JoinSessionRequest{SessionID: sessionID, ParticipantName: bobName})

		info, ok := s.Receive(bob, receiveTimeout).(protocol.SessionInfoResponse)
		s.Require().True(ok, "Expected a SessionInfoResponse after join")
		s.Require().Equal(sessionID, info.SessionID)
		s.Require().Contains(info.CurrentParticipants, aliceName)
		s.Require().Contains(info.CurrentParticipants, bobName)

		announcement, ok := s.Receive(alice, receiveTimeout).(protocol.ParticipantJoinAnnouncement)
		s.Require().True(ok, "Expected Alice to hear about Bob joining")
		s.Require().Equal(bobName, announcement.ParticipantName)
	})

	s.Run("Step 3: Topic change replaces the issue for everyone", func() {
		s.Send(alice, protocol.TopicChangeRequest{TopicRef: "POKER-42"})

		for _, ws := range []*websocket.Conn{alice, bob} {
			announcement, ok := s.Receive(ws, receiveTimeout).(protocol.VotingIssueAnnouncement)
			s.Require().True(ok, "Expected a VotingIssueAnnouncement")
			s.Require().Equal("POKER-42", announcement.Issue.TopicRef)
			s.Require().NotEqual(issueID, announcement.Issue.ID)
			s.Require().Empty(announcement.Issue.Votes)
			issueID = announcement.Issue.ID
		}
	})

	s.Run("Step 4: Votes stay blind until everyone voted", func() {
		s.Send(alice, protocol.VoteRequest{IssueID: issueID, Vote: domain.VoteThree})

		for _, ws := range []*websocket.Conn{alice, bob} {
			receipt, ok := s.Receive(ws, receiveTimeout).(protocol.VoteReceiptAnnouncement)
			s.Require().True(ok, "Expected a VoteReceiptAnnouncement")
			s.Require().Equal(aliceName, receipt.ParticipantName)
			s.Require().Equal(issueID, receipt.IssueID)
		}
	})

	s.Run("Step 5: Last vote reveals the unblinded results", func() {
		s.Send(bob, protocol.VoteRequest{IssueID: issueID, Vote: domain.VoteEight})

		for _, ws := range []*websocket.Conn{alice, bob} {
			receipt, ok := s.Receive(ws, receiveTimeout).(protocol.VoteReceiptAnnouncement)
			s.Require().True(ok, "Expected Bob's receipt before the revelation")
			s.Require().Equal(bobName, receipt.ParticipantName)

			revelation, ok := s.Receive(ws, receiveTimeout).(protocol.VotingResultsRevelation)
			s.Require().True(ok, "Expected the revelation after the final receipt")
			s.Require().Equal(issueID, revelation.IssueID)
			s.Require().Equal(domain.VoteThree, revelation.Votes[aliceName])
			s.Require().Equal(domain.VoteEight, revelation.Votes[bobName])
		}
	})

	s.Run("Step 6: Bob leaves and Alice is told", func() {
		s.Require().NoError(bob.Close())

		leave, ok := s.Receive(alice, receiveTimeout).(protocol.ParticipantLeaveAnnouncement)
		s.Require().True(ok, "Expected a ParticipantLeaveAnnouncement")
		s.Require().Equal(bobName, leave.ParticipantName)
	})
}

func (s *testVotingScenarioSuite) TestJoinErrors() {
	name := fmt.Sprintf("solo-%s", uuid.NewString()[:8])

	s.Run("Joining an unknown session is a typed error", func() {
		s.WithClient("Client joins a made-up session", func(ws *websocket.Conn) {
			s.Send(ws, protocol.JoinSessionRequest{SessionID: uuid.NewString(), ParticipantName: name})

			joinErr, ok := s.Receive(ws, receiveTimeout).(protocol.SessionJoinErrorResponse)
			s.Require().True(ok, "Expected a SessionJoinErrorResponse")
			s.Require().Equal(protocol.JoinErrorUnknownSession, joinErr.Error)
		})
	})

	s.Run("A taken name is rejected", func() {
		owner := s.Dial("Owner creates a session")
		defer owner.Close()

		s.Send(owner, protocol.CreateSessionRequest{ParticipantName: name})
		info, ok := s.Receive(owner, receiveTimeout).(protocol.SessionInfoResponse)
		s.Require().True(ok)

		s.WithClient("Impostor joins with the same name", func(ws *websocket.Conn) {
			s.Send(ws, protocol.JoinSessionRequest{SessionID: info.SessionID, ParticipantName: name})

			joinErr, ok := s.Receive(ws, receiveTimeout).(protocol.SessionJoinErrorResponse)
			s.Require().True(ok, "Expected a SessionJoinErrorResponse")
			s.Require().Equal(protocol.JoinErrorNameTaken, joinErr.Error)
		})
	})
}
