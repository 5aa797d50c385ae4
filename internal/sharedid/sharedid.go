// Package sharedid implements the identifier scheme shared by every service
// in the betting platform. Team and match ids are pure functions of their
// ordinal, so independent services agree on them without a shared store.
//
// The output of this package is a wire contract: changing any string here
// breaks agreement with sibling services. Bump SchemeVersion instead.
package sharedid

import (
	"fmt"
	"time"
)

// SchemeVersion identifies the current id scheme.
const SchemeVersion = 1

// TeamID returns the shared id of the n-th team (1-based).
func TeamID(n int) string {
	return fmt.Sprintf("team-%d", n)
}

// MatchID returns the shared id of the n-th match (1-based).
func MatchID(n int) string {
	return fmt.Sprintf("match-%d", n)
}

// RosterTeam is a canonical team entry.
type RosterTeam struct {
	ID   string
	Name string
}

// Fixture is a canonical match entry. Kickoff is expressed as an offset from
// the anchor time supplied by the caller.
type Fixture struct {
	ID         string
	HomeTeamID string
	AwayTeamID string
	Offset     time.Duration
}

var rosterNames = []string{
	"Manchester United",
	"Liverpool",
	"Chelsea",
	"Arsenal",
	"Manchester City",
	"Tottenham",
}

// Roster returns the canonical teams in id order.
func Roster() []RosterTeam {
	out := make([]RosterTeam, len(rosterNames))
	for i, name := range rosterNames {
		out[i] = RosterTeam{ID: TeamID(i + 1), Name: name}
	}
	return out
}

// Fixtures returns the canonical matches: consecutive roster pairs, one day
// apart.
func Fixtures() []Fixture {
	n := len(rosterNames) / 2
	out := make([]Fixture, n)
	for i := 0; i < n; i++ {
		out[i] = Fixture{
			ID:         MatchID(i + 1),
			HomeTeamID: TeamID(2*i + 1),
			AwayTeamID: TeamID(2*i + 2),
			Offset:     time.Duration(i+1) * 24 * time.Hour,
		}
	}
	return out
}

// TeamIDForName returns the shared id for a canonical team name.
func TeamIDForName(name string) (string, bool) {
	for i, n := range rosterNames {
		if n == name {
			return TeamID(i + 1), true
		}
	}
	return "", false
}
