package signals

import (
	"fmt"
	"math"
	"sort"

	"github.com/ternarybob/valuescreen/internal/models"
)

// Evaluator computes the SMA band signal for a price series
type Evaluator struct{}

// NewEvaluator creates a new band evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate averages the closes of the series and classifies the most recent close.
// The series is sorted by date first; provider order is not trusted.
// An empty series, or one holding a NaN, infinite or non-positive close, returns
// ErrInsufficientData.
func (e *Evaluator) Evaluate(series models.PriceSeries) (SignalResult, error) {
	if series.Len() == 0 {
		return SignalResult{}, fmt.Errorf("%w: no closes for %s", ErrInsufficientData, series.Symbol)
	}

	points := make([]models.PricePoint, len(series.Points))
	copy(points, series.Points)
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	closes := make([]float64, len(points))
	for i, p := range points {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) || p.Close <= 0 {
			return SignalResult{}, fmt.Errorf("%w: undefined close %v for %s on %s",
				ErrInsufficientData, p.Close, series.Symbol, p.Date.Format("2006-01-02"))
		}
		closes[i] = p.Close
	}

	last := points[len(points)-1]
	average := avg(closes)
	signal := Classify(average, last.Close)

	return SignalResult{
		Symbol:       series.Symbol,
		Signal:       signal,
		Condition:    signal.Condition(),
		AveragePrice: average,
		LatestPrice:  last.Close,
		LatestDate:   last.Date,
		Points:       len(points),
	}, nil
}

// Classify maps (average, latest) to a signal:
//
//	latest > average*1.10 -> SELL
//	latest < average*0.95 -> BUY
//	otherwise             -> HOLD
func Classify(average, latest float64) Signal {
	if latest > average*SellMultiplier {
		return SignalSell
	}
	if latest < average*BuyMultiplier {
		return SignalBuy
	}
	return SignalHold
}

// Summary formats the result for logs, prices rounded to cents
func (r SignalResult) Summary() string {
	return fmt.Sprintf("%s %s avg=%.2f latest=%.2f", r.Symbol, r.Signal, round(r.AveragePrice, 2), round(r.LatestPrice, 2))
}
