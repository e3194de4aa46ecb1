// Package screener provides the value screen: threshold filter, weighted composite
// score and top-N selection over a fundamentals snapshot.
// All functions are stateless and perform no I/O.
package screener

import (
	"math"
	"sort"

	"github.com/ternarybob/valuescreen/internal/models"
)

// Filter thresholds. Every predicate is strict.
const (
	MinMarketCap       = 10e9
	MinROE             = 0.15
	MaxDebtToEquity    = 0.5
	MaxPE              = 15.0
	denominatorEpsilon = 0.1
)

// Composite score weights
const (
	WeightROE          = 0.4
	WeightPE           = 0.4
	WeightDebtToEquity = 0.2
)

// TopN is the maximum number of rows returned by Screen
const TopN = 10

// Passes reports whether a record satisfies every filter predicate.
// Incomplete records never pass.
func Passes(r models.EquityRecord) bool {
	if !r.IsComplete() {
		return false
	}
	return r.MarketCap > MinMarketCap &&
		r.ROE > MinROE &&
		r.DebtToEquity < MaxDebtToEquity &&
		r.PE < MaxPE
}

// Score computes the composite value score:
//
//	score = 0.4*roe + 0.4*(1/(pe+0.1)) + 0.2*(1/(debt2equity+0.1))
//
// Higher ROE, lower PE and lower leverage all raise the score.
func Score(r models.EquityRecord) float64 {
	return WeightROE*r.ROE +
		WeightPE*(1/(r.PE+denominatorEpsilon)) +
		WeightDebtToEquity*(1/(r.DebtToEquity+denominatorEpsilon))
}

// Screen filters the snapshot, scores the survivors and returns at most TopN of
// them, best first. Ties keep snapshot order. An empty result is not an error.
func Screen(records []models.EquityRecord) []models.ScoredEquity {
	scored := make([]models.ScoredEquity, 0, len(records))
	for _, r := range records {
		if !Passes(r) {
			continue
		}
		score := Score(r)
		// pe == -0.1 or debt2equity == -0.1 would blow the score up
		if math.IsNaN(score) || math.IsInf(score, 0) {
			continue
		}
		scored = append(scored, models.ScoredEquity{
			EquityRecord: r,
			Score:        score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > TopN {
		scored = scored[:TopN]
	}
	return scored
}
