// Package simfin loads fundamentals snapshots from the SimFin bulk-download API.
// A bulk download is a zip archive holding one semicolon-separated CSV file.
package simfin

import "fmt"

// Columns names the CSV header holding each required EquityRecord field.
// Matching is case-insensitive and ignores surrounding whitespace.
type Columns struct {
	Ticker       string
	MarketCap    string
	ROE          string
	DebtToEquity string
	PE           string
	Price        string
}

// DefaultColumns returns the column names of a pre-derived screener dataset
func DefaultColumns() Columns {
	return Columns{
		Ticker:       "ticker",
		MarketCap:    "marketcap",
		ROE:          "roe",
		DebtToEquity: "debt2equity",
		PE:           "pe",
		Price:        "price",
	}
}

// APIError represents a non-200 response from the bulk-download endpoint
type APIError struct {
	StatusCode int
	Message    string
	Dataset    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("SimFin API error: %s (status: %d, dataset: %s)", e.Message, e.StatusCode, e.Dataset)
}

// MissingColumnError is returned when the snapshot header lacks a mapped column
type MissingColumnError struct {
	Field  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("snapshot has no column %q for field %s", e.Column, e.Field)
}
