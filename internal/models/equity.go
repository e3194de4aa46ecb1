package models

import "math"

// EquityRecord is one row of a fundamentals snapshot.
// Missing values are carried as NaN so they never pass a numeric predicate.
type EquityRecord struct {
	Ticker       string  `json:"ticker" yaml:"ticker"`
	MarketCap    float64 `json:"marketcap" yaml:"marketcap"`
	ROE          float64 `json:"roe" yaml:"roe"`
	DebtToEquity float64 `json:"debt2equity" yaml:"debt2equity"`
	PE           float64 `json:"pe" yaml:"pe"`
	Price        float64 `json:"price" yaml:"price"`
}

// IsComplete reports whether every filtered and scored field holds a finite value.
// Price is display-only and may be missing.
func (r EquityRecord) IsComplete() bool {
	for _, v := range []float64{r.MarketCap, r.ROE, r.DebtToEquity, r.PE} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Ticker != ""
}

// ScoredEquity is an EquityRecord that passed the screen, with its composite score
type ScoredEquity struct {
	EquityRecord `yaml:",inline"`
	Score        float64 `json:"score" yaml:"score"`
}
