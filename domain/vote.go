// Package domain contains core concepts of the estimation system.
// No runtime, network, or UI logic should be added here.
package domain

import "fmt"

// Vote is a single estimation value a participant can cast.
type Vote string

const (
	// VoteUnknown is an explicit abstain value.
	VoteUnknown   Vote = "Unknown"
	VoteOne       Vote = "One"
	VoteTwo       Vote = "Two"
	VoteThree     Vote = "Three"
	VoteFive      Vote = "Five"
	VoteEight     Vote = "Eight"
	VoteThirteen  Vote = "Thirteen"
	VoteTwentyOne Vote = "TwentyOne"
	VoteInfinite  Vote = "Infinite"

	// VoteSecret stands in for another participant's vote in a blinded
	// rendering. It is never stored in an issue's vote map.
	VoteSecret Vote = "Secret"
)

// CastableVotes lists the values a participant may submit, in estimation order.
var CastableVotes = []Vote{
	VoteUnknown,
	VoteOne,
	VoteTwo,
	VoteThree,
	VoteFive,
	VoteEight,
	VoteThirteen,
	VoteTwentyOne,
	VoteInfinite,
}

// Castable reports whether v may be stored in an issue's vote map.
func (v Vote) Castable() bool {
	for _, c := range CastableVotes {
		if v == c {
			return true
		}
	}
	return false
}

func ParseVote(s string) (Vote, error) {
	v := Vote(s)
	if !v.Castable() {
		return "", fmt.Errorf("not a castable vote: %q", s)
	}
	return v, nil
}

// ResolveOutcome computes the resolved vote of a closed issue.
//
// TODO: settle the aggregation policy (median vs consensus-or-flag) with
// the product side; until then the outcome is a placeholder and the UI
// shows the raw vote map instead.
func ResolveOutcome(votes map[string]Vote) Vote {
	return VoteUnknown
}
