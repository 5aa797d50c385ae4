package domain

import "github.com/shopspring/decimal"

// BetType identifies a market offered on every match.
type BetType string

const (
	BetTypeMatchWinner BetType = "match_winner"
	BetTypeGoalsAbove3 BetType = "goals_above_3"
	BetTypeYellowCards BetType = "yellow_cards"
	BetTypeRedCards    BetType = "red_cards"
)

// BetTypes lists every bet type in catalog order.
var BetTypes = []BetType{
	BetTypeMatchWinner,
	BetTypeGoalsAbove3,
	BetTypeYellowCards,
	BetTypeRedCards,
}

// Valid reports whether t is one of the known bet types.
func (t BetType) Valid() bool {
	for _, bt := range BetTypes {
		if bt == t {
			return true
		}
	}
	return false
}

// OddsRow is one priced, bettable outcome for a match and bet type. Rows are
// immutable once generated.
type OddsRow struct {
	ID          string          `json:"id"`
	MatchID     string          `json:"match_id"`
	BetType     BetType         `json:"bet_type"`
	Option      string          `json:"option"`
	Description string          `json:"description"`
	Odds        decimal.Decimal `json:"odds"`
}

// MatchOdds is the full odds sheet for a match together with resolved team
// names.
type MatchOdds struct {
	Match        Match     `json:"match"`
	HomeTeamName string    `json:"home_team_name"`
	AwayTeamName string    `json:"away_team_name"`
	Odds         []OddsRow `json:"odds"`
}
