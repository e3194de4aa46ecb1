package eodhd

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/valuescreen/internal/interfaces"
	"github.com/ternarybob/valuescreen/internal/models"
)

// PriceProvider adapts the EOD endpoint to interfaces.PriceHistoryProvider
type PriceProvider struct {
	client   *Client
	exchange string
	logger   arbor.ILogger
}

var _ interfaces.PriceHistoryProvider = (*PriceProvider)(nil)

// NewPriceProvider creates a price provider. exchange is appended to bare
// symbols, so "TQQQ" with exchange "US" is requested as "TQQQ.US".
func NewPriceProvider(client *Client, exchange string, logger arbor.ILogger) *PriceProvider {
	return &PriceProvider{
		client:   client,
		exchange: exchange,
		logger:   logger,
	}
}

// Name returns the provider name
func (p *PriceProvider) Name() string {
	return "eodhd"
}

// History returns daily closes between from and to in ascending date order.
// Adjusted close is preferred; rows without a usable close are dropped.
func (p *PriceProvider) History(ctx context.Context, symbol string, from, to time.Time) (models.PriceSeries, error) {
	code := p.qualify(symbol)

	rows, err := p.client.GetEOD(ctx, code,
		WithDateRange(from, to),
		WithPeriod("d"),
		WithOrder("a"),
	)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: eodhd history for %s: %w", interfaces.ErrDataUnavailable, code, err)
	}

	series := models.PriceSeries{Symbol: symbol, Points: make([]models.PricePoint, 0, len(rows))}
	for _, row := range rows {
		if row.Date.IsZero() {
			continue
		}
		price := row.AdjustedClose
		if price <= 0 || math.IsNaN(price) {
			price = row.Close
		}
		if price <= 0 || math.IsNaN(price) {
			continue
		}
		series.Points = append(series.Points, models.PricePoint{Date: row.Date, Close: price})
	}

	if p.logger != nil {
		p.logger.Debug().
			Str("symbol", code).
			Int("rows", len(rows)).
			Int("points", len(series.Points)).
			Msg("EODHD history loaded")
	}

	return series, nil
}

func (p *PriceProvider) qualify(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if p.exchange == "" || strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + "." + strings.ToUpper(p.exchange)
}
