package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Catalog.UseSeed())
	assert.Equal(t, 5*time.Second, cfg.Catalog.FetchTimeout.Duration)
	assert.Equal(t, 5*time.Minute, cfg.Catalog.TTL.Duration)
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "check"

[catalog]
base_url = "http://teams:8001"
ttl = "90s"

[server]
port = 9000
`), 0o600))

	t.Setenv("BETLEDGER_SERVER_PORT", "9100")
	t.Setenv("BETLEDGER_NOTIFY_EVENTS", "bet_placed, ledger_exported ,")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "check", cfg.Mode)
	assert.Equal(t, "http://teams:8001", cfg.Catalog.BaseURL)
	assert.False(t, cfg.Catalog.UseSeed())
	assert.Equal(t, 90*time.Second, cfg.Catalog.TTL.Duration)
	assert.Equal(t, 5*time.Second, cfg.Catalog.FetchTimeout.Duration)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, []string{"bet_placed", "ledger_exported"}, cfg.Notify.Events)
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "server", cfg.Mode)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.Catalog.BaseURL = "teams:8001"
	cfg.Catalog.TTL = duration{}
	cfg.Postgres.Enabled = true
	cfg.Postgres.PoolMinConns = 20
	cfg.Notify.TelegramToken = "t"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `unknown mode "trade"`)
	assert.Contains(t, msg, "catalog: base_url")
	assert.Contains(t, msg, "catalog: ttl")
	assert.Contains(t, msg, "postgres: pool_min_conns must not exceed")
	assert.Contains(t, msg, "telegram_chat_id")
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Server.APIKey = "key"
	cfg.Postgres.Password = "pw"
	cfg.Notify.DiscordWebhookURL = "https://discord.example/hook"
	cfg.AMQP.URL = "amqp://user:pass@mq:5672/vhost"

	out := RedactedConfig(&cfg)
	assert.Equal(t, "***", out.Server.APIKey)
	assert.Equal(t, "***", out.Postgres.Password)
	assert.Equal(t, "***", out.Notify.DiscordWebhookURL)
	assert.Equal(t, "", out.Notify.TelegramToken)
	assert.NotContains(t, out.AMQP.URL, "pass")
	assert.Contains(t, out.AMQP.URL, "user:")
	assert.Contains(t, out.AMQP.URL, "@mq:5672/vhost")

	out.Server.CORSOrigins[0] = "mutated"
	assert.Equal(t, "*", cfg.Server.CORSOrigins[0])
	assert.Equal(t, "key", cfg.Server.APIKey)
}
