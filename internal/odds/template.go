package odds

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/betledger/internal/domain"
)

// Template holds the fixed pricing constants used to generate odds rows.
// Constants for a given Version never change; a new pricing scheme gets a
// new Version so existing row ids stay stable.
type Template struct {
	Version int

	HomeWin decimal.Decimal
	Draw    decimal.Decimal
	AwayWin decimal.Decimal

	GoalsYes decimal.Decimal
	GoalsNo  decimal.Decimal

	// Yellow card option i (0..YellowMax) is priced YellowBase + i*YellowStep.
	YellowMax  int
	YellowBase decimal.Decimal
	YellowStep decimal.Decimal

	// Red card option i (0..RedMax) is priced RedBase + i*RedStep.
	RedMax  int
	RedBase decimal.Decimal
	RedStep decimal.Decimal
}

// TemplateV1 is the house template every match is priced with.
var TemplateV1 = Template{
	Version: 1,

	HomeWin: decimal.RequireFromString("2.10"),
	Draw:    decimal.RequireFromString("3.20"),
	AwayWin: decimal.RequireFromString("3.50"),

	GoalsYes: decimal.RequireFromString("2.75"),
	GoalsNo:  decimal.RequireFromString("1.45"),

	YellowMax:  5,
	YellowBase: decimal.RequireFromString("3.0"),
	YellowStep: decimal.RequireFromString("0.5"),

	RedMax:  3,
	RedBase: decimal.RequireFromString("2.0"),
	RedStep: decimal.RequireFromString("1.5"),
}

// Option values for the fixed-outcome bet types.
const (
	OptionHomeWin = "home_win"
	OptionDraw    = "draw"
	OptionAwayWin = "away_win"
	OptionYes     = "yes"
	OptionNo      = "no"
)

// RowCount is the number of rows the template yields per match.
func (t Template) RowCount() int {
	return 3 + 2 + (t.YellowMax + 1) + (t.RedMax + 1)
}

// Generate produces the full odds sheet for a match. It is pure: the same
// template, match and names always yield identical rows, ids included.
func (t Template) Generate(match domain.Match, homeName, awayName string) []domain.OddsRow {
	rows := make([]domain.OddsRow, 0, t.RowCount())
	add := func(bt domain.BetType, option, desc string, price decimal.Decimal) {
		rows = append(rows, domain.OddsRow{
			ID:          RowID(t.Version, match.ID, bt, option),
			MatchID:     match.ID,
			BetType:     bt,
			Option:      option,
			Description: desc,
			Odds:        price,
		})
	}

	add(domain.BetTypeMatchWinner, OptionHomeWin, homeName+" to win", t.HomeWin)
	add(domain.BetTypeMatchWinner, OptionDraw, "Draw", t.Draw)
	add(domain.BetTypeMatchWinner, OptionAwayWin, awayName+" to win", t.AwayWin)

	add(domain.BetTypeGoalsAbove3, OptionYes, "More than 3 goals in match", t.GoalsYes)
	add(domain.BetTypeGoalsAbove3, OptionNo, "3 goals or fewer in match", t.GoalsNo)

	for i := 0; i <= t.YellowMax; i++ {
		price := t.YellowBase.Add(t.YellowStep.Mul(decimal.NewFromInt(int64(i))))
		add(domain.BetTypeYellowCards, fmt.Sprint(i), fmt.Sprintf("Exactly %d yellow cards", i), price)
	}
	for i := 0; i <= t.RedMax; i++ {
		price := t.RedBase.Add(t.RedStep.Mul(decimal.NewFromInt(int64(i))))
		add(domain.BetTypeRedCards, fmt.Sprint(i), fmt.Sprintf("Exactly %d red cards", i), price)
	}
	return rows
}
