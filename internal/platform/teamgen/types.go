package teamgen

import (
	"strings"
	"time"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// APITeam is a team as returned by GET /api/TeamsData.
type APITeam struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ToDomainTeam converts an APITeam to a domain.Team.
func (t APITeam) ToDomainTeam() domain.Team {
	return domain.Team{ID: t.ID, Name: t.Name}
}

// APIMatch is a match as returned by GET /api/Matches.
type APIMatch struct {
	ID            string    `json:"id"`
	HomeTeamID    string    `json:"homeTeamId"`
	AwayTeamID    string    `json:"awayTeamId"`
	ScheduledDate time.Time `json:"scheduledDate"`
	Venue         string    `json:"venue"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	Notes         *string   `json:"notes,omitempty"`
}

// ToDomainMatch converts an APIMatch to a domain.Match.
func (m APIMatch) ToDomainMatch() domain.Match {
	return domain.Match{
		ID:         m.ID,
		HomeTeamID: m.HomeTeamID,
		AwayTeamID: m.AwayTeamID,
		MatchDate:  m.ScheduledDate.UTC(),
		Status:     MapStatus(m.Status),
	}
}

// MapStatus folds the authority's match states onto the three states the
// betting catalog understands. Unknown values are treated as scheduled.
func MapStatus(s string) domain.MatchStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inprogress", "in_progress", "live":
		return domain.MatchStatusLive
	case "completed", "finished", "cancelled", "canceled":
		return domain.MatchStatusFinished
	default:
		return domain.MatchStatusScheduled
	}
}
