package catalog

import (
	"context"
	"time"

	"github.com/alanyoungcy/betledger/internal/domain"
	"github.com/alanyoungcy/betledger/internal/sharedid"
)

// StaticSource serves the canonical roster and fixtures so the service can
// run without a catalog authority.
type StaticSource struct {
	teams   []domain.Team
	matches []domain.Match
}

// NewStaticSource builds the seed catalog with kickoffs relative to base.
func NewStaticSource(base time.Time) *StaticSource {
	s := &StaticSource{}
	for _, t := range sharedid.Roster() {
		s.teams = append(s.teams, domain.Team{ID: t.ID, Name: t.Name})
	}
	for _, f := range sharedid.Fixtures() {
		s.matches = append(s.matches, domain.Match{
			ID:         f.ID,
			HomeTeamID: f.HomeTeamID,
			AwayTeamID: f.AwayTeamID,
			MatchDate:  base.Add(f.Offset).UTC(),
			Status:     domain.MatchStatusScheduled,
		})
	}
	return s
}

// FetchAllTeams returns the seed roster.
func (s *StaticSource) FetchAllTeams(ctx context.Context) ([]domain.Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]domain.Team(nil), s.teams...), nil
}

// FetchAllMatches returns the seed fixtures.
func (s *StaticSource) FetchAllMatches(ctx context.Context) ([]domain.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]domain.Match(nil), s.matches...), nil
}

var _ domain.CatalogSource = (*StaticSource)(nil)
