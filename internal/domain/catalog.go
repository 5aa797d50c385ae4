package domain

import (
	"context"
	"time"
)

// MatchStatus represents the lifecycle state of a match.
type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusFinished  MatchStatus = "finished"
)

// Team is a club known to the catalog authority.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Match references its teams by id only; names are resolved at read time.
type Match struct {
	ID         string      `json:"id"`
	HomeTeamID string      `json:"home_team_id"`
	AwayTeamID string      `json:"away_team_id"`
	MatchDate  time.Time   `json:"match_date"`
	Status     MatchStatus `json:"status"`
}

// CatalogSource fetches the full team and match sets from the catalog
// authority. Implementations must honour ctx deadlines.
type CatalogSource interface {
	FetchAllTeams(ctx context.Context) ([]Team, error)
	FetchAllMatches(ctx context.Context) ([]Match, error)
}

// CatalogLookup is implemented by authorities that also serve single records
// by id. Lookups of unknown ids return ErrNotFound.
type CatalogLookup interface {
	GetTeam(ctx context.Context, id string) (Team, error)
	GetMatch(ctx context.Context, id string) (Match, error)
}
