package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns defaults with the credentials Validate requires
func validConfig() *Config {
	c := NewDefaultConfig()
	c.Fundamentals.APIKey = "simfin-key"
	c.Telegram.BotToken = "123456789:abc"
	c.Telegram.ChatID = "-1001"
	return c
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	c := NewDefaultConfig()

	assert.Equal(t, "TQQQ", c.Prices.Symbol)
	assert.Equal(t, PriceProviderYahoo, c.Prices.Provider)
	assert.Equal(t, 1, c.Prices.LookbackMonths)
	assert.Equal(t, "us", c.Fundamentals.Market)
	assert.Equal(t, "debt2equity", c.Fundamentals.Columns.DebtToEquity)
	assert.Equal(t, "Markdown", c.Telegram.ParseMode)
	assert.NoError(t, ValidateSchedule(c.Scheduler.Schedule))
}

func TestLoadFromFiles_LaterFilesOverride(t *testing.T) {
	base := writeConfig(t, "base.toml", `
[prices]
symbol = "QQQ"
provider = "eodhd"

[fundamentals.columns]
roe = "Return on Equity"
`)
	override := writeConfig(t, "override.toml", `
[prices]
symbol = "SPY"
`)

	c, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, "SPY", c.Prices.Symbol)
	assert.Equal(t, PriceProviderEODHD, c.Prices.Provider)
	assert.Equal(t, "Return on Equity", c.Fundamentals.Columns.ROE)
	// untouched defaults survive
	assert.Equal(t, "pe", c.Fundamentals.Columns.PE)
}

func TestLoadFromFiles_SampleConfig(t *testing.T) {
	path := filepath.Join("..", "..", "deployments", "local", "valuescreen.toml")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[fundamentals.columns]")

	c, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, NewDefaultConfig().Fundamentals.Columns, c.Fundamentals.Columns)
	c.Fundamentals.APIKey = "simfin-key"
	assert.NoError(t, c.ValidateData())
}

func TestLoadFromFiles_Errors(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	bad := writeConfig(t, "bad.toml", "[prices\nsymbol=")
	_, err = LoadFromFiles(bad)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		"TELEGRAM_BOT_TOKEN":             "legacy-token",
		"VALUESCREEN_TELEGRAM_BOT_TOKEN": "prefixed-token",
		"TELEGRAM_CHAT_ID":               "42",
		"SIMFIN_API_KEY":                 "simfin-key",
		"VALUESCREEN_LOG_OUTPUT":         "stdout, file",
		"VALUESCREEN_RUN_ON_START":       "true",
		"VALUESCREEN_SCHEDULE":           "30 8 * * 1-5",
	}
	c := NewDefaultConfig()

	applyEnvOverrides(c, func(k string) string { return env[k] })

	assert.Equal(t, "prefixed-token", c.Telegram.BotToken)
	assert.Equal(t, "42", c.Telegram.ChatID)
	assert.Equal(t, "simfin-key", c.Fundamentals.APIKey)
	assert.Equal(t, []string{"stdout", "file"}, c.Logging.Output)
	assert.True(t, c.Scheduler.RunOnStart)
	assert.Equal(t, "30 8 * * 1-5", c.Scheduler.Schedule)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid defaults with telegram credentials", func(c *Config) {}, false},
		{"bad cron", func(c *Config) { c.Scheduler.Schedule = "every monday" }, true},
		{"unknown price provider", func(c *Config) { c.Prices.Provider = "bloomberg" }, true},
		{"eodhd without key", func(c *Config) { c.Prices.Provider = PriceProviderEODHD }, true},
		{"eodhd with key", func(c *Config) {
			c.Prices.Provider = PriceProviderEODHD
			c.EODHD.APIKey = "k"
		}, false},
		{"telegram missing chat id", func(c *Config) { c.Telegram.ChatID = "" }, true},
		{"no sink enabled", func(c *Config) { c.Telegram.Enabled = false }, true},
		{"email enabled without host", func(c *Config) { c.Email.Enabled = true }, true},
		{"email only", func(c *Config) {
			c.Telegram.Enabled = false
			c.Email.Enabled = true
			c.Email.Host = "smtp.example.com"
			c.Email.From = "bot@example.com"
			c.Email.To = "me@example.com"
		}, false},
		{"bad timeout", func(c *Config) { c.Scheduler.Timeout = "soon" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"empty symbol", func(c *Config) { c.Prices.Symbol = "" }, true},
		{"empty column mapping", func(c *Config) { c.Fundamentals.Columns.PE = "" }, true},
		{"missing simfin key", func(c *Config) { c.Fundamentals.APIKey = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateData_IgnoresSinks(t *testing.T) {
	c := validConfig()
	c.Telegram.Enabled = false
	c.Email.Enabled = false

	assert.NoError(t, c.ValidateData())
	assert.Error(t, c.Validate())
}

func TestParseDurationOr(t *testing.T) {
	assert.Equal(t, 5*time.Minute, ParseDurationOr("5m", time.Second))
	assert.Equal(t, 7*time.Second, ParseDurationOr("", 7*time.Second))
	assert.Equal(t, 7*time.Second, ParseDurationOr("nope", 7*time.Second))
}
