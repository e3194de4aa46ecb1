package models

import "time"

// PricePoint is a single daily close
type PricePoint struct {
	Date  time.Time `json:"date" yaml:"date"`
	Close float64   `json:"close" yaml:"close"`
}

// PriceSeries is the closing-price history of one instrument.
// Providers return it in ascending date order, consumers must not rely on that.
type PriceSeries struct {
	Symbol string       `json:"symbol" yaml:"symbol"`
	Points []PricePoint `json:"points" yaml:"points"`
}

// Len returns the number of points in the series
func (s PriceSeries) Len() int {
	return len(s.Points)
}
