package signals

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/valuescreen/internal/models"
)

// seriesOf builds an ascending daily series starting 2025-01-06
func seriesOf(closes ...float64) models.PriceSeries {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	points := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = models.PricePoint{Date: start.AddDate(0, 0, i), Close: c}
	}
	return models.PriceSeries{Symbol: "TQQQ", Points: points}
}

func TestEvaluator_Evaluate(t *testing.T) {
	tests := []struct {
		name        string
		closes      []float64
		wantSignal  Signal
		wantAverage float64
		wantLatest  float64
	}{
		{"sell above band", []float64{100, 100, 100, 130}, SignalSell, 107.5, 130},
		{"hold inside band", []float64{100, 100, 100, 103}, SignalHold, 100.75, 103},
		{"buy below band", []float64{100, 100, 100, 80}, SignalBuy, 95, 80},
		{"single point holds", []float64{42}, SignalHold, 42, 42},
	}

	e := NewEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Evaluate(seriesOf(tt.closes...))
			require.NoError(t, err)

			assert.Equal(t, tt.wantSignal, result.Signal)
			assert.InDelta(t, tt.wantAverage, result.AveragePrice, 1e-9)
			assert.Equal(t, tt.wantLatest, result.LatestPrice)
			assert.Equal(t, len(tt.closes), result.Points)
			assert.Equal(t, tt.wantSignal.Condition(), result.Condition)
		})
	}
}

func TestEvaluator_EmptySeries(t *testing.T) {
	result, err := NewEvaluator().Evaluate(models.PriceSeries{Symbol: "TQQQ"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
	assert.Equal(t, SignalResult{}, result)
}

func TestEvaluator_SortsByDateBeforeReadingLatest(t *testing.T) {
	series := seriesOf(100, 100, 100, 130)
	// newest first, as a descending feed would return it
	series.Points[0], series.Points[3] = series.Points[3], series.Points[0]
	series.Points[1], series.Points[2] = series.Points[2], series.Points[1]

	result, err := NewEvaluator().Evaluate(series)
	require.NoError(t, err)

	assert.Equal(t, 130.0, result.LatestPrice)
	assert.Equal(t, SignalSell, result.Signal)
	assert.Equal(t, time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC), result.LatestDate)
}

func TestEvaluator_DoesNotReorderCallerSeries(t *testing.T) {
	series := seriesOf(100, 130)
	series.Points[0], series.Points[1] = series.Points[1], series.Points[0]

	_, err := NewEvaluator().Evaluate(series)
	require.NoError(t, err)

	assert.Equal(t, 130.0, series.Points[0].Close)
}

func TestClassify_Boundaries(t *testing.T) {
	average := 100.0

	tests := []struct {
		name   string
		latest float64
		want   Signal
	}{
		{"exactly at sell threshold", average * SellMultiplier, SignalHold},
		{"just above sell threshold", average*SellMultiplier + 0.01, SignalSell},
		{"exactly at buy threshold", average * BuyMultiplier, SignalHold},
		{"just below buy threshold", average*BuyMultiplier - 0.01, SignalBuy},
		{"equal to average", average, SignalHold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(average, tt.latest); got != tt.want {
				t.Errorf("Classify(%v, %v) = %v, want %v", average, tt.latest, got, tt.want)
			}
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	pairs := [][2]float64{{100, 130}, {100.75, 103}, {95, 80}, {50, 52.5}}

	for _, p := range pairs {
		first := Classify(p[0], p[1])
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, Classify(p[0], p[1]))
		}
	}
}

func TestSignalResult_Summary(t *testing.T) {
	r := SignalResult{Symbol: "TQQQ", Signal: SignalHold, AveragePrice: 100.754, LatestPrice: 103}

	assert.Equal(t, "TQQQ HOLD avg=100.75 latest=103.00", r.Summary())
}

func TestEvaluator_UndefinedCloses(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
	}{
		{"nan in the middle", []float64{100, math.NaN(), 100, 100}},
		{"positive infinity latest", []float64{100, 100, 100, math.Inf(1)}},
		{"negative infinity", []float64{math.Inf(-1), 100, 100}},
		{"zero close", []float64{100, 0, 100}},
		{"negative close", []float64{100, 100, -5}},
		{"single nan", []float64{math.NaN()}},
	}

	e := NewEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Evaluate(seriesOf(tt.closes...))

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInsufficientData))
			assert.Equal(t, SignalResult{}, result)
		})
	}
}
