package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Price provider names accepted in [prices].provider
const (
	PriceProviderYahoo = "yahoo"
	PriceProviderEODHD = "eodhd"
)

// Config represents the application configuration.
// It is built once at startup and passed by reference; nothing below cmd/ reads the environment.
type Config struct {
	Environment  string             `toml:"environment"` // "development" or "production"
	Logging      LoggingConfig      `toml:"logging"`
	Scheduler    SchedulerConfig    `toml:"scheduler"`
	Server       ServerConfig       `toml:"server"`
	Fundamentals FundamentalsConfig `toml:"fundamentals"`
	Prices       PricesConfig       `toml:"prices"`
	EODHD        EODHDConfig        `toml:"eodhd"`
	Yahoo        YahooConfig        `toml:"yahoo"`
	Telegram     TelegramConfig     `toml:"telegram"`
	Email        EmailConfig        `toml:"email"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output []string `toml:"output"`                                       // "stdout", "file"
}

// SchedulerConfig controls the serve loop
type SchedulerConfig struct {
	Schedule   string `toml:"schedule" validate:"required"` // Standard 5-field cron expression
	RunOnStart bool   `toml:"run_on_start"`                 // Fire one run immediately when serve starts
	Timeout    string `toml:"timeout"`                      // Per-run timeout, e.g. "5m"
}

type ServerConfig struct {
	Enabled bool   `toml:"enabled"` // Expose /health and /api/status while serving
	Port    int    `toml:"port" validate:"gte=0,lte=65535"`
	Host    string `toml:"host"`
}

// FundamentalsConfig configures the SimFin bulk snapshot
type FundamentalsConfig struct {
	APIKey  string        `toml:"api_key"`
	BaseURL string        `toml:"base_url" validate:"required,url"`
	Market  string        `toml:"market" validate:"required"`
	Dataset string        `toml:"dataset" validate:"required"`
	Variant string        `toml:"variant" validate:"required"`
	Timeout string        `toml:"timeout"`
	Columns ColumnMapping `toml:"columns"`
}

// ColumnMapping names the snapshot CSV columns holding each required field.
// The defaults match a pre-derived export; SimFin bulk datasets need their own header names here.
type ColumnMapping struct {
	Ticker       string `toml:"ticker" validate:"required"`
	MarketCap    string `toml:"marketcap" validate:"required"`
	ROE          string `toml:"roe" validate:"required"`
	DebtToEquity string `toml:"debt2equity" validate:"required"`
	PE           string `toml:"pe" validate:"required"`
	Price        string `toml:"price" validate:"required"`
}

// PricesConfig selects the price-history provider and the instrument
type PricesConfig struct {
	Provider       string `toml:"provider" validate:"oneof=yahoo eodhd"`
	Symbol         string `toml:"symbol" validate:"required"`
	LookbackMonths int    `toml:"lookback_months" validate:"gte=1"`
}

type EODHDConfig struct {
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url" validate:"required,url"`
	Exchange  string `toml:"exchange"` // Suffix appended to the symbol, e.g. "US" -> TQQQ.US
	RateLimit int    `toml:"rate_limit" validate:"gte=1"`
}

type YahooConfig struct {
	BaseURL   string `toml:"base_url" validate:"required,url"`
	UserAgent string `toml:"user_agent"`
	Timeout   string `toml:"timeout"`
}

type TelegramConfig struct {
	Enabled   bool   `toml:"enabled"`
	BotToken  string `toml:"bot_token"`
	ChatID    string `toml:"chat_id"`
	BaseURL   string `toml:"base_url" validate:"required,url"`
	ParseMode string `toml:"parse_mode"`
	Timeout   string `toml:"timeout"`
}

// EmailConfig holds SMTP settings for the optional email sink
type EmailConfig struct {
	Enabled  bool   `toml:"enabled"`
	Host     string `toml:"host"`
	Port     int    `toml:"port" validate:"gte=0,lte=65535"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
	FromName string `toml:"from_name"`
	To       string `toml:"to"`
	UseTLS   bool   `toml:"use_tls"`
	Subject  string `toml:"subject"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Scheduler: SchedulerConfig{
			Schedule: "0 9 * * 1", // Mondays 09:00, weekly
			Timeout:  "5m",
		},
		Server: ServerConfig{
			Enabled: false,
			Port:    8086,
			Host:    "localhost",
		},
		Fundamentals: FundamentalsConfig{
			BaseURL: "https://backend.simfin.com/api/bulk-download/s3",
			Market:  "us",
			Dataset: "derived-shareprices",
			Variant: "latest",
			Timeout: "2m",
			Columns: ColumnMapping{
				Ticker:       "ticker",
				MarketCap:    "marketcap",
				ROE:          "roe",
				DebtToEquity: "debt2equity",
				PE:           "pe",
				Price:        "price",
			},
		},
		Prices: PricesConfig{
			Provider:       PriceProviderYahoo,
			Symbol:         "TQQQ",
			LookbackMonths: 1,
		},
		EODHD: EODHDConfig{
			BaseURL:   "https://eodhd.com/api",
			Exchange:  "US",
			RateLimit: 10,
		},
		Yahoo: YahooConfig{
			BaseURL:   "https://query2.finance.yahoo.com",
			UserAgent: "valuescreen/1.0",
			Timeout:   "15s",
		},
		Telegram: TelegramConfig{
			Enabled:   true,
			BaseURL:   "https://api.telegram.org",
			ParseMode: "Markdown",
			Timeout:   "30s",
		},
		Email: EmailConfig{
			Enabled:  false,
			Port:     587,
			UseTLS:   true,
			FromName: "Value Screener",
			Subject:  "Weekly Value Screener Results",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI overrides are applied by the caller.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config, os.Getenv)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
// The un-prefixed names are the ones the original cron script was deployed with.
func applyEnvOverrides(config *Config, getenv func(string) string) {
	if env := getenv("VALUESCREEN_ENV"); env != "" {
		config.Environment = env
	}

	// Logging
	if level := getenv("VALUESCREEN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := getenv("VALUESCREEN_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if o = strings.TrimSpace(o); o != "" {
				outputs = append(outputs, o)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Scheduler
	if schedule := getenv("VALUESCREEN_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
	if runOnStart := getenv("VALUESCREEN_RUN_ON_START"); runOnStart != "" {
		if b, err := strconv.ParseBool(runOnStart); err == nil {
			config.Scheduler.RunOnStart = b
		}
	}

	// Server
	if port := getenv("VALUESCREEN_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Data providers
	if key := firstEnv(getenv, "VALUESCREEN_SIMFIN_API_KEY", "SIMFIN_API_KEY"); key != "" {
		config.Fundamentals.APIKey = key
	}
	if key := firstEnv(getenv, "VALUESCREEN_EODHD_API_KEY", "EODHD_API_KEY"); key != "" {
		config.EODHD.APIKey = key
	}
	if provider := getenv("VALUESCREEN_PRICE_PROVIDER"); provider != "" {
		config.Prices.Provider = provider
	}
	if symbol := getenv("VALUESCREEN_PRICE_SYMBOL"); symbol != "" {
		config.Prices.Symbol = symbol
	}

	// Telegram
	if token := firstEnv(getenv, "VALUESCREEN_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN"); token != "" {
		config.Telegram.BotToken = token
	}
	if chatID := firstEnv(getenv, "VALUESCREEN_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID"); chatID != "" {
		config.Telegram.ChatID = chatID
	}

	// Email
	if password := getenv("VALUESCREEN_SMTP_PASSWORD"); password != "" {
		config.Email.Password = password
	}
}

// firstEnv returns the first non-empty value among the named variables
func firstEnv(getenv func(string) string, names ...string) string {
	for _, name := range names {
		if v := getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, logLevel string) {
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
}

// Validate checks struct constraints, the cron schedule, durations and the
// credentials each enabled collaborator needs.
func (c *Config) Validate() error {
	if err := c.ValidateData(); err != nil {
		return err
	}

	if !c.Telegram.Enabled && !c.Email.Enabled {
		return fmt.Errorf("no messaging sink enabled: enable telegram or email")
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id are required when telegram is enabled")
	}
	if c.Email.Enabled && (c.Email.Host == "" || c.Email.From == "" || c.Email.To == "") {
		return fmt.Errorf("email.host, email.from and email.to are required when email is enabled")
	}

	return nil
}

// ValidateData checks everything except the messaging sinks, which a dry run never uses
func (c *Config) ValidateData() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := ValidateSchedule(c.Scheduler.Schedule); err != nil {
		return err
	}

	for name, value := range map[string]string{
		"scheduler.timeout":    c.Scheduler.Timeout,
		"fundamentals.timeout": c.Fundamentals.Timeout,
		"yahoo.timeout":        c.Yahoo.Timeout,
		"telegram.timeout":     c.Telegram.Timeout,
	} {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", name, err)
		}
	}

	if c.Fundamentals.APIKey == "" {
		return fmt.Errorf("fundamentals.api_key is required (or set SIMFIN_API_KEY)")
	}

	if c.Prices.Provider == PriceProviderEODHD && c.EODHD.APIKey == "" {
		return fmt.Errorf("eodhd.api_key is required when prices.provider is %q", PriceProviderEODHD)
	}

	return nil
}

// ValidateSchedule validates a standard 5-field cron expression
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule, err)
	}
	return nil
}

// ParseDurationOr parses a duration string, falling back when empty or invalid
func ParseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
