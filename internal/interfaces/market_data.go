package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/valuescreen/internal/models"
)

// ErrDataUnavailable is returned when a fundamentals snapshot or price history
// cannot be loaded, or loads empty
var ErrDataUnavailable = errors.New("data unavailable")

// FundamentalsProvider loads a point-in-time fundamentals snapshot for a market.
type FundamentalsProvider interface {
	// LoadSnapshot returns every row of the snapshot in provider order.
	// Rows with missing fields are returned as-is (NaN); filtering is the caller's job.
	LoadSnapshot(ctx context.Context, market string) ([]models.EquityRecord, error)

	// Name identifies the provider in logs
	Name() string
}

// PriceHistoryProvider loads daily closing prices for one instrument.
type PriceHistoryProvider interface {
	// History returns the daily closes for symbol between from and to (inclusive).
	History(ctx context.Context, symbol string, from, to time.Time) (models.PriceSeries, error)

	// Name identifies the provider in logs
	Name() string
}
