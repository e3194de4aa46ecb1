package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the resolved, secret-free settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.Print("ValueScreen", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("environment", config.Environment).
		Str("market", config.Fundamentals.Market).
		Str("price_provider", config.Prices.Provider).
		Str("symbol", config.Prices.Symbol).
		Bool("telegram", config.Telegram.Enabled).
		Bool("email", config.Email.Enabled).
		Msg("Configuration loaded")
}
