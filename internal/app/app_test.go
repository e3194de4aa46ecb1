package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/valuescreen/internal/common"
)

func testConfig() *common.Config {
	cfg := common.NewDefaultConfig()
	cfg.Fundamentals.APIKey = "simfin-key"
	cfg.Telegram.BotToken = "123:abc"
	cfg.Telegram.ChatID = "-100200"
	return cfg
}

func TestNew_Defaults(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	a, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, "simfin", a.Fundamentals.Name())
	assert.Equal(t, "yahoo", a.Prices.Name())
	require.Len(t, a.Routes, 1)
	assert.Equal(t, "telegram", a.Routes[0].Sink.Name())
	assert.Equal(t, "-100200", a.Routes[0].Destination)
	assert.NotNil(t, a.ReportService)
	assert.NotNil(t, a.SchedulerService)
	assert.NotNil(t, a.StatusHandler)
	assert.NotNil(t, a.SchedulerHandler)
	assert.False(t, a.SchedulerService.IsRunning())
	assert.Equal(t, "0 9 * * 1", a.SchedulerService.GetJobStatus().Schedule)

	assert.NoError(t, a.Close())
}

func TestNew_EODHDAndEmail(t *testing.T) {
	cfg := testConfig()
	cfg.Prices.Provider = common.PriceProviderEODHD
	cfg.EODHD.APIKey = "eodhd-key"
	cfg.Email.Enabled = true
	cfg.Email.Host = "smtp.example.com"
	cfg.Email.From = "screener@example.com"
	cfg.Email.To = "me@example.com"
	require.NoError(t, cfg.Validate())

	a, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, "eodhd", a.Prices.Name())
	require.Len(t, a.Routes, 2)
	assert.Equal(t, "telegram", a.Routes[0].Sink.Name())
	assert.Equal(t, "email", a.Routes[1].Sink.Name())
	assert.Equal(t, "me@example.com", a.Routes[1].Destination)
}

func TestNew_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.Prices.Provider = "bloomberg"
	_, err := New(cfg, arbor.NewLogger())
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Telegram.Enabled = false
	_, err = New(cfg, arbor.NewLogger())
	assert.Error(t, err)
}

func TestNewWithoutDelivery(t *testing.T) {
	cfg := testConfig()
	cfg.Telegram.Enabled = false
	require.NoError(t, cfg.ValidateData())

	a, err := NewWithoutDelivery(cfg, arbor.NewLogger())
	require.NoError(t, err)
	assert.Empty(t, a.Routes)
	assert.NotNil(t, a.ReportService)
}
