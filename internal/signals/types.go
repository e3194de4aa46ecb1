// Package signals classifies an instrument's latest close against its trailing
// average into a discrete SELL/BUY/HOLD signal.
package signals

import (
	"errors"
	"time"
)

// ErrInsufficientData is returned when a price series has no points to average
var ErrInsufficientData = errors.New("insufficient data")

// Signal is the discrete classification of latest price against the average
type Signal string

const (
	SignalSell Signal = "SELL"
	SignalBuy  Signal = "BUY"
	SignalHold Signal = "HOLD"
)

// Band multipliers applied to the average. Both comparisons are strict.
const (
	SellMultiplier = 1.10
	BuyMultiplier  = 0.95
)

// Condition descriptions rendered alongside the signal
const (
	ConditionSell = "latest > average × 1.10 (10% above average)"
	ConditionBuy  = "latest < average × 0.95 (5% below average)"
	ConditionHold = "within band, no threshold crossed"
)

// SignalResult is the outcome of one evaluation
type SignalResult struct {
	Symbol       string    `json:"symbol" yaml:"symbol"`
	Signal       Signal    `json:"signal" yaml:"signal"`
	Condition    string    `json:"condition" yaml:"condition"`
	AveragePrice float64   `json:"average_price" yaml:"average_price"`
	LatestPrice  float64   `json:"latest_price" yaml:"latest_price"`
	LatestDate   time.Time `json:"latest_date" yaml:"latest_date"`
	Points       int       `json:"points" yaml:"points"`
}

// Condition returns the human-readable trigger for a signal
func (s Signal) Condition() string {
	switch s {
	case SignalSell:
		return ConditionSell
	case SignalBuy:
		return ConditionBuy
	default:
		return ConditionHold
	}
}
