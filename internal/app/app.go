package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/valuescreen/internal/common"
	"github.com/ternarybob/valuescreen/internal/eodhd"
	"github.com/ternarybob/valuescreen/internal/handlers"
	"github.com/ternarybob/valuescreen/internal/httpclient"
	"github.com/ternarybob/valuescreen/internal/interfaces"
	"github.com/ternarybob/valuescreen/internal/services/notify"
	"github.com/ternarybob/valuescreen/internal/services/report"
	"github.com/ternarybob/valuescreen/internal/services/scheduler"
	"github.com/ternarybob/valuescreen/internal/simfin"
	"github.com/ternarybob/valuescreen/internal/yahoo"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Data providers
	Fundamentals interfaces.FundamentalsProvider
	Prices       interfaces.PriceHistoryProvider

	// Delivery
	Routes []report.Route

	// Services
	ReportService    *report.Service
	SchedulerService interfaces.SchedulerService

	// HTTP handlers (serve only)
	StatusHandler    *handlers.StatusHandler
	SchedulerHandler *handlers.SchedulerHandler
}

// New wires every component from cfg. The config is expected to be validated.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	return newApp(cfg, logger, true)
}

// NewWithoutDelivery wires providers and services with no sinks, for dry runs
func NewWithoutDelivery(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	return newApp(cfg, logger, false)
}

func newApp(cfg *common.Config, logger arbor.ILogger, withSinks bool) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initProviders(); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	if withSinks {
		if err := app.initSinks(); err != nil {
			return nil, fmt.Errorf("failed to initialize sinks: %w", err)
		}
	}

	app.initServices()
	app.initHandlers()

	app.Logger.Debug().
		Str("fundamentals", app.Fundamentals.Name()).
		Str("prices", app.Prices.Name()).
		Int("sinks", len(app.Routes)).
		Msg("Application initialized")

	return app, nil
}

func (a *App) initProviders() error {
	fc := a.Config.Fundamentals
	a.Fundamentals = simfin.NewClient(fc.APIKey,
		simfin.WithBaseURL(fc.BaseURL),
		simfin.WithDataset(fc.Dataset, fc.Variant),
		simfin.WithColumns(simfin.Columns{
			Ticker:       fc.Columns.Ticker,
			MarketCap:    fc.Columns.MarketCap,
			ROE:          fc.Columns.ROE,
			DebtToEquity: fc.Columns.DebtToEquity,
			PE:           fc.Columns.PE,
			Price:        fc.Columns.Price,
		}),
		simfin.WithHTTPClient(httpclient.NewHTTPClientWithUserAgent(
			common.ParseDurationOr(fc.Timeout, simfin.DefaultTimeout), userAgent())),
		simfin.WithLogger(a.Logger),
	)

	switch a.Config.Prices.Provider {
	case common.PriceProviderEODHD:
		ec := a.Config.EODHD
		client := eodhd.NewClient(ec.APIKey,
			eodhd.WithBaseURL(ec.BaseURL),
			eodhd.WithRateLimit(ec.RateLimit),
			eodhd.WithHTTPClient(httpclient.NewHTTPClientWithUserAgent(eodhd.DefaultTimeout, userAgent())),
			eodhd.WithLogger(a.Logger),
		)
		a.Prices = eodhd.NewPriceProvider(client, ec.Exchange, a.Logger)
	case common.PriceProviderYahoo, "":
		yc := a.Config.Yahoo
		a.Prices = yahoo.NewClient(a.Logger,
			yahoo.WithBaseURL(yc.BaseURL),
			yahoo.WithUserAgent(yc.UserAgent),
			yahoo.WithHTTPClient(httpclient.NewDefaultHTTPClient(common.ParseDurationOr(yc.Timeout, yahoo.DefaultTimeout))),
		)
	default:
		return fmt.Errorf("unknown price provider %q", a.Config.Prices.Provider)
	}

	return nil
}

func userAgent() string {
	return "valuescreen/" + common.GetVersion()
}

func (a *App) initSinks() error {
	a.Routes = nil

	if tc := a.Config.Telegram; tc.Enabled {
		sink := notify.NewTelegram(tc.BotToken, a.Logger,
			notify.WithTelegramBaseURL(tc.BaseURL),
			notify.WithParseMode(tc.ParseMode),
			notify.WithTelegramHTTPClient(httpclient.NewDefaultHTTPClient(common.ParseDurationOr(tc.Timeout, 30*time.Second))),
		)
		a.Routes = append(a.Routes, report.Route{Sink: sink, Destination: tc.ChatID})
	}

	if ec := a.Config.Email; ec.Enabled {
		sink := notify.NewEmail(notify.SMTPConfig{
			Host:     ec.Host,
			Port:     ec.Port,
			Username: ec.Username,
			Password: ec.Password,
			From:     ec.From,
			FromName: ec.FromName,
			UseTLS:   ec.UseTLS,
			Subject:  ec.Subject,
		}, a.Logger)
		a.Routes = append(a.Routes, report.Route{Sink: sink, Destination: ec.To})
	}

	if len(a.Routes) == 0 {
		return fmt.Errorf("no messaging sink enabled")
	}
	return nil
}

func (a *App) initServices() {
	a.ReportService = report.NewService(
		a.Fundamentals,
		a.Prices,
		a.Routes,
		report.Options{
			Market:         a.Config.Fundamentals.Market,
			Symbol:         a.Config.Prices.Symbol,
			LookbackMonths: a.Config.Prices.LookbackMonths,
		},
		a.Logger,
	)

	a.SchedulerService = scheduler.NewService(
		a.Config.Scheduler.Schedule,
		common.ParseDurationOr(a.Config.Scheduler.Timeout, 0),
		func(ctx context.Context) error {
			_, err := a.ReportService.Run(ctx)
			return err
		},
		a.Logger,
	)
}

func (a *App) initHandlers() {
	a.StatusHandler = handlers.NewStatusHandler(a.SchedulerService, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService, a.Logger)
}

// Close stops the scheduler
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
