package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/betledger/internal/domain"
)

func TestBuildListQueryNoFilters(t *testing.T) {
	q, args := buildListQuery(domain.ListOpts{})
	assert.Equal(t,
		"SELECT id, event_type, subject, detail, occurred_at FROM event_log WHERE 1=1 ORDER BY occurred_at DESC, seq DESC",
		q)
	assert.Empty(t, args)
}

func TestBuildListQueryAllFilters(t *testing.T) {
	since := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	until := since.Add(24 * time.Hour)

	q, args := buildListQuery(domain.ListOpts{
		Type:   domain.EventBetPlaced,
		Since:  &since,
		Until:  &until,
		Limit:  50,
		Offset: 10,
	})

	assert.Contains(t, q, "event_type = $1")
	assert.Contains(t, q, "occurred_at >= $2")
	assert.Contains(t, q, "occurred_at <= $3")
	assert.Contains(t, q, "LIMIT $4")
	assert.Contains(t, q, "OFFSET $5")
	require.Len(t, args, 5)
	assert.Equal(t, "bet_placed", args[0])
	assert.Equal(t, 50, args[3])
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p@db:5432/bets?sslmode=disable",
		DSN(ClientConfig{Host: "db", Database: "bets", User: "u", Password: "p"}))
	assert.Equal(t, "postgres://explicit", DSN(ClientConfig{DSN: "postgres://explicit", Host: "ignored"}))
}

func TestMigrationNames(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_event_log.sql"}, names)
}
