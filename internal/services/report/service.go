// Package report runs one screener cycle: load fundamentals, screen, evaluate
// the ETF signal, compose the message and deliver it to every configured sink.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/valuescreen/internal/interfaces"
	"github.com/ternarybob/valuescreen/internal/models"
	"github.com/ternarybob/valuescreen/internal/services/screener"
	"github.com/ternarybob/valuescreen/internal/signals"
)

// Route pairs a sink with the destination it delivers to
type Route struct {
	Sink        interfaces.MessageSink
	Destination string
}

// Options are the per-run inputs taken from configuration
type Options struct {
	Market         string
	Symbol         string
	LookbackMonths int
}

// Report is the structured outcome of one run
type Report struct {
	RunID        string                `json:"run_id" yaml:"run_id"`
	GeneratedAt  time.Time             `json:"generated_at" yaml:"generated_at"`
	Market       string                `json:"market" yaml:"market"`
	SnapshotSize int                   `json:"snapshot_size" yaml:"snapshot_size"`
	Equities     []models.ScoredEquity `json:"equities" yaml:"equities"`
	Signal       signals.SignalResult  `json:"signal" yaml:"signal"`
	Deliveries   []string              `json:"deliveries,omitempty" yaml:"deliveries,omitempty"`
}

// Service composes and delivers screener reports
type Service struct {
	fundamentals interfaces.FundamentalsProvider
	prices       interfaces.PriceHistoryProvider
	evaluator    *signals.Evaluator
	routes       []Route
	options      Options
	now          func() time.Time
	logger       arbor.ILogger
}

// NewService creates a report service
func NewService(
	fundamentals interfaces.FundamentalsProvider,
	prices interfaces.PriceHistoryProvider,
	routes []Route,
	options Options,
	logger arbor.ILogger,
) *Service {
	if options.LookbackMonths < 1 {
		options.LookbackMonths = 1
	}
	return &Service{
		fundamentals: fundamentals,
		prices:       prices,
		evaluator:    signals.NewEvaluator(),
		routes:       routes,
		options:      options,
		now:          time.Now,
		logger:       logger,
	}
}

// Build fetches the data and computes the report without sending anything.
// Errors keep their taxonomy: interfaces.ErrDataUnavailable or signals.ErrInsufficientData.
func (s *Service) Build(ctx context.Context) (*Report, error) {
	return s.build(ctx, uuid.New().String(), s.logger)
}

func (s *Service) build(ctx context.Context, runID string, logger arbor.ILogger) (*Report, error) {
	now := s.now()

	records, err := s.fundamentals.LoadSnapshot(ctx, s.options.Market)
	if err != nil {
		return nil, fmt.Errorf("load %s snapshot from %s: %w", s.options.Market, s.fundamentals.Name(), err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("load %s snapshot from %s: %w: snapshot is empty",
			s.options.Market, s.fundamentals.Name(), interfaces.ErrDataUnavailable)
	}

	equities := screener.Screen(records)
	logger.Info().
		Int("snapshot", len(records)).
		Int("selected", len(equities)).
		Msg("Value screen complete")

	from := now.AddDate(0, -s.options.LookbackMonths, 0)
	series, err := s.prices.History(ctx, s.options.Symbol, from, now)
	if err != nil {
		return nil, fmt.Errorf("load %s history from %s: %w", s.options.Symbol, s.prices.Name(), err)
	}

	result, err := s.evaluator.Evaluate(series)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", s.options.Symbol, err)
	}
	if result.Symbol == "" {
		result.Symbol = s.options.Symbol
	}
	logger.Info().
		Str("signal", string(result.Signal)).
		Float64("average", result.AveragePrice).
		Float64("latest", result.LatestPrice).
		Int("points", result.Points).
		Msg("Signal evaluated")

	return &Report{
		RunID:        runID,
		GeneratedAt:  now,
		Market:       s.options.Market,
		SnapshotSize: len(records),
		Equities:     equities,
		Signal:       result,
	}, nil
}

// Run builds the report and sends the composed message to every route.
// Nothing is sent unless the whole message was composed. Sinks are tried in
// order; failures are joined and each wraps interfaces.ErrMessagingFailure.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	runID := uuid.New().String()
	logger := s.logger.WithCorrelationId(runID)
	started := time.Now()

	logger.Info().
		Str("market", s.options.Market).
		Str("symbol", s.options.Symbol).
		Str("fundamentals", s.fundamentals.Name()).
		Str("prices", s.prices.Name()).
		Msg("Screener run started")

	report, err := s.build(ctx, runID, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Screener run aborted, nothing sent")
		return nil, err
	}

	message := FormatMessage(report)

	var errs []error
	for _, route := range s.routes {
		if err := route.Sink.Send(ctx, route.Destination, message); err != nil {
			logger.Error().Err(err).Str("sink", route.Sink.Name()).Msg("Delivery failed")
			errs = append(errs, fmt.Errorf("send via %s: %w", route.Sink.Name(), err))
			continue
		}
		report.Deliveries = append(report.Deliveries, route.Sink.Name())
	}

	if err := errors.Join(errs...); err != nil {
		return report, err
	}

	logger.Info().
		Strs("sinks", report.Deliveries).
		Dur("duration", time.Since(started)).
		Msg("Screener run complete")

	return report, nil
}
