// Package odds generates and serves the fixed house odds for catalog matches.
package odds

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// rowNamespace scopes odds row ids so they never collide with other
// name-based UUIDs.
var rowNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("betledger/odds"))

// RowID derives the deterministic id of an odds row.
func RowID(version int, matchID string, bt domain.BetType, option string) string {
	name := fmt.Sprintf("%d/%s/%s/%s", version, matchID, bt, option)
	return uuid.NewSHA1(rowNamespace, []byte(name)).String()
}

// NameResolver resolves a team id to its display name.
type NameResolver func(teamID string) string

// Book holds generated odds keyed by match id. Rows for a match are created
// the first time the match is seen and never replaced afterwards.
type Book struct {
	template Template
	logger   *slog.Logger

	mu      sync.RWMutex
	byMatch map[string][]domain.OddsRow
}

// NewBook creates an empty odds book priced with tmpl.
func NewBook(tmpl Template, logger *slog.Logger) *Book {
	if logger == nil {
		logger = slog.Default()
	}
	return &Book{
		template: tmpl,
		logger:   logger.With(slog.String("component", "odds_book")),
		byMatch:  make(map[string][]domain.OddsRow),
	}
}

// GenerateForMatch returns the odds sheet for a match without storing it.
func (b *Book) GenerateForMatch(match domain.Match, homeName, awayName string) []domain.OddsRow {
	return b.template.Generate(match, homeName, awayName)
}

// Ingest generates rows for every match not yet in the book and returns the
// number of matches added.
func (b *Book) Ingest(matches []domain.Match, names NameResolver) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	added := 0
	for _, m := range matches {
		if _, ok := b.byMatch[m.ID]; ok {
			continue
		}
		b.byMatch[m.ID] = b.template.Generate(m, names(m.HomeTeamID), names(m.AwayTeamID))
		added++
	}
	if added > 0 {
		b.logger.Debug("odds generated",
			slog.Int("matches", added),
			slog.Int("template_version", b.template.Version),
		)
	}
	return added
}

// GetOddsForMatch returns all rows for a match, or nil if the match has none.
func (b *Book) GetOddsForMatch(matchID string) []domain.OddsRow {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rows, ok := b.byMatch[matchID]
	if !ok {
		return nil
	}
	out := make([]domain.OddsRow, len(rows))
	copy(out, rows)
	return out
}

// GetByType returns the rows of one bet type for a match.
func (b *Book) GetByType(matchID string, bt domain.BetType) []domain.OddsRow {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []domain.OddsRow
	for _, r := range b.byMatch[matchID] {
		if r.BetType == bt {
			out = append(out, r)
		}
	}
	return out
}

// GetSpecific looks up a single row. Matching is exact and case-sensitive.
func (b *Book) GetSpecific(matchID string, bt domain.BetType, option string) (domain.OddsRow, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, r := range b.byMatch[matchID] {
		if r.BetType == bt && r.Option == option {
			return r, true
		}
	}
	return domain.OddsRow{}, false
}

// MatchCount returns the number of matches with generated odds.
func (b *Book) MatchCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byMatch)
}
