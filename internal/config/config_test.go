package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate clears every bound variable and points HOME at an empty directory.
func isolate(t *testing.T) string {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SHINOBI_HOST", "nvr.lan")
	t.Setenv("SHINOBI_TOKEN", "apikey")
	t.Setenv("SHINOBI_GROUP_KEY", "house")
	t.Setenv("TELEGRAM_BOT_KEY", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-1001234")
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	setRequired(t)

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http", cfg.Shinobi.Scheme)
	assert.Equal(t, 8080, cfg.Shinobi.Port)
	assert.Equal(t, 2*time.Second, cfg.Shinobi.Timeout)
	assert.Equal(t, "http://nvr.lan:8080", cfg.Shinobi.BaseURL())
	assert.Equal(t, int64(-1001234), cfg.Telegram.ChatID)
	assert.Equal(t, 60, cfg.Telegram.PollTimeout)
	assert.Equal(t, 90*time.Second, cfg.Telegram.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Telegram.SendTimeout)
	assert.Equal(t, ":8090", cfg.HTTP.ListenAddr)
	assert.Equal(t, "/trigger", cfg.HTTP.TriggerPath)
	assert.Zero(t, cfg.HTTP.RateLimit, "webhooks are not rate limited unless asked")
	assert.Zero(t, cfg.Relay.Concurrency)
	assert.False(t, cfg.Relay.AllowEmpty)
	assert.True(t, cfg.Relay.CaptionGaps)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	setRequired(t)
	t.Setenv("SHINOBI_PORT", "8443")
	t.Setenv("SHINOBI_SCHEME", "https")
	t.Setenv("SHINOBI_TIMEOUT", "5s")
	t.Setenv("TRIGGER_PATH", "motion")
	t.Setenv("RELAY_CONCURRENCY", "4")
	t.Setenv("RELAY_ALLOW_EMPTY", "true")
	t.Setenv("TRIGGER_RATE_LIMIT", "120")
	t.Setenv("TELEGRAM_SEND_TIMEOUT", "10s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://nvr.lan:8443", cfg.Shinobi.BaseURL())
	assert.Equal(t, 5*time.Second, cfg.Shinobi.Timeout)
	assert.Equal(t, "/motion", cfg.HTTP.TriggerPath)
	assert.Equal(t, 4, cfg.Relay.Concurrency)
	assert.True(t, cfg.Relay.AllowEmpty)
	assert.Equal(t, 120, cfg.HTTP.RateLimit)
	assert.Equal(t, 10*time.Second, cfg.Telegram.SendTimeout)
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "relay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
shinobi:
  host: cams.example
  port: 9000
  token: filetoken
  group_key: office
telegram:
  bot_key: "1:xyz"
  chat_id: 555
http:
  listen_addr: 127.0.0.1:9999
`), 0o600))

	// The environment wins over the file.
	t.Setenv("SHINOBI_GROUP_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "cams.example", cfg.Shinobi.Host)
	assert.Equal(t, 9000, cfg.Shinobi.Port)
	assert.Equal(t, "from-env", cfg.Shinobi.GroupKey)
	assert.Equal(t, int64(555), cfg.Telegram.ChatID)
	assert.Equal(t, "127.0.0.1:9999", cfg.HTTP.ListenAddr)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateReportsAllMissing(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"SHINOBI_HOST", "SHINOBI_TOKEN", "SHINOBI_GROUP_KEY", "TELEGRAM_BOT_KEY", "TELEGRAM_CHAT_ID"} {
		assert.Contains(t, err.Error(), want)
	}
	assert.NotContains(t, err.Error(), "LISTEN_ADDR")

	err = cfg.ValidateShinobi()
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "TELEGRAM")
}

func TestValidateRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "port zero", mutate: func(c *Config) { c.Shinobi.Port = 0 }},
		{name: "port too large", mutate: func(c *Config) { c.Shinobi.Port = 70000 }},
		{name: "negative poll", mutate: func(c *Config) { c.Telegram.PollTimeout = -1 }},
		{name: "poll exceeds timeout", mutate: func(c *Config) {
			c.Telegram.PollTimeout = 60
			c.Telegram.Timeout = 30 * time.Second
		}},
		{name: "zero send timeout", mutate: func(c *Config) { c.Telegram.SendTimeout = 0 }},
		{name: "empty listen addr", mutate: func(c *Config) { c.HTTP.ListenAddr = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			setRequired(t)
			cfg, err := Load("")
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())

			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	home := isolate(t)
	setRequired(t)

	cfg, err := Load("")
	require.NoError(t, err)

	path, err := Save(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".shinobi-relay.yaml"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	isolate(t)
	t.Setenv("HOME", home)
	loaded, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, cfg.Shinobi, loaded.Shinobi)
	assert.Equal(t, cfg.Telegram.BotKey, loaded.Telegram.BotKey)
	assert.Equal(t, cfg.Telegram.ChatID, loaded.Telegram.ChatID)
}
