package screener

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/valuescreen/internal/models"
)

// passing returns a record that satisfies every predicate
func passing(ticker string, roe, pe, de float64) models.EquityRecord {
	return models.EquityRecord{
		Ticker:       ticker,
		MarketCap:    50e9,
		ROE:          roe,
		DebtToEquity: de,
		PE:           pe,
		Price:        100,
	}
}

func TestPasses(t *testing.T) {
	base := passing("BASE", 0.20, 10, 0.3)

	tests := []struct {
		name   string
		mutate func(r *models.EquityRecord)
		want   bool
	}{
		{"all predicates hold", func(r *models.EquityRecord) {}, true},
		{"market cap at threshold", func(r *models.EquityRecord) { r.MarketCap = 10e9 }, false},
		{"market cap below threshold", func(r *models.EquityRecord) { r.MarketCap = 9e9 }, false},
		{"roe at threshold", func(r *models.EquityRecord) { r.ROE = 0.15 }, false},
		{"debt2equity at threshold", func(r *models.EquityRecord) { r.DebtToEquity = 0.5 }, false},
		{"pe at threshold", func(r *models.EquityRecord) { r.PE = 15 }, false},
		{"negative pe passes", func(r *models.EquityRecord) { r.PE = -4 }, true},
		{"missing roe", func(r *models.EquityRecord) { r.ROE = math.NaN() }, false},
		{"missing pe", func(r *models.EquityRecord) { r.PE = math.NaN() }, false},
		{"missing debt2equity", func(r *models.EquityRecord) { r.DebtToEquity = math.NaN() }, false},
		{"missing market cap", func(r *models.EquityRecord) { r.MarketCap = math.NaN() }, false},
		{"missing price still passes", func(r *models.EquityRecord) { r.Price = math.NaN() }, true},
		{"infinite pe", func(r *models.EquityRecord) { r.PE = math.Inf(-1) }, false},
		{"missing ticker", func(r *models.EquityRecord) { r.Ticker = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mutate(&r)
			if got := Passes(r); got != tt.want {
				t.Errorf("Passes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScore_WorkedExample(t *testing.T) {
	r := passing("EX", 0.20, 10, 0.3)

	score := Score(r)

	assert.InDelta(t, 0.6196, score, 0.0001)
	assert.Equal(t, 0.62, Round2(score))
}

func TestScore_Ordering(t *testing.T) {
	low := Score(passing("A", 0.16, 14, 0.45))
	higherROE := Score(passing("B", 0.30, 14, 0.45))
	lowerPE := Score(passing("C", 0.16, 5, 0.45))
	lowerDE := Score(passing("D", 0.16, 14, 0.05))

	assert.Greater(t, higherROE, low)
	assert.Greater(t, lowerPE, low)
	assert.Greater(t, lowerDE, low)
}

func TestScreen_OutputSatisfiesFilter(t *testing.T) {
	records := []models.EquityRecord{
		passing("OK1", 0.20, 10, 0.3),
		{Ticker: "SMALL", MarketCap: 1e9, ROE: 0.3, DebtToEquity: 0.1, PE: 8, Price: 10},
		{Ticker: "LOWROE", MarketCap: 20e9, ROE: 0.10, DebtToEquity: 0.1, PE: 8, Price: 10},
		{Ticker: "LEVERED", MarketCap: 20e9, ROE: 0.3, DebtToEquity: 1.2, PE: 8, Price: 10},
		{Ticker: "PRICEY", MarketCap: 20e9, ROE: 0.3, DebtToEquity: 0.1, PE: 30, Price: 10},
		{Ticker: "GAPS", MarketCap: 20e9, ROE: math.NaN(), DebtToEquity: 0.1, PE: 8, Price: 10},
		passing("OK2", 0.25, 12, 0.2),
	}

	got := Screen(records)

	require.Len(t, got, 2)
	for _, r := range got {
		assert.Greater(t, r.MarketCap, MinMarketCap, r.Ticker)
		assert.Greater(t, r.ROE, MinROE, r.Ticker)
		assert.Less(t, r.DebtToEquity, MaxDebtToEquity, r.Ticker)
		assert.Less(t, r.PE, MaxPE, r.Ticker)
	}
}

func TestScreen_TopTenSortedDescending(t *testing.T) {
	var records []models.EquityRecord
	for i := 0; i < 25; i++ {
		// spread ROE so every score is distinct, in scrambled order
		roe := 0.16 + float64((i*7)%25)*0.01
		records = append(records, passing(fmt.Sprintf("T%02d", i), roe, 10, 0.3))
	}

	got := Screen(records)

	require.Len(t, got, TopN)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score, "inversion at %d", i)
	}
	assert.InDelta(t, 0.16+0.24, got[0].ROE, 1e-9)
}

func TestScreen_FewerThanTopN(t *testing.T) {
	records := []models.EquityRecord{
		passing("A", 0.20, 10, 0.3),
		passing("B", 0.30, 10, 0.3),
		passing("C", 0.18, 10, 0.3),
		{Ticker: "X", MarketCap: 1e9, ROE: 0.3, DebtToEquity: 0.1, PE: 8, Price: 10},
	}

	got := Screen(records)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"B", "A", "C"}, tickers(got))
}

func TestScreen_TiesKeepSnapshotOrder(t *testing.T) {
	records := []models.EquityRecord{
		passing("FIRST", 0.20, 10, 0.3),
		passing("BEST", 0.40, 10, 0.3),
		passing("SECOND", 0.20, 10, 0.3),
		passing("THIRD", 0.20, 10, 0.3),
	}

	got := Screen(records)

	assert.Equal(t, []string{"BEST", "FIRST", "SECOND", "THIRD"}, tickers(got))
}

func TestScreen_EmptyResult(t *testing.T) {
	records := []models.EquityRecord{
		{Ticker: "X", MarketCap: 1e9, ROE: 0.3, DebtToEquity: 0.1, PE: 8, Price: 10},
	}

	got := Screen(records)
	assert.Empty(t, got)

	assert.Empty(t, Screen(nil))
}

func TestScreen_DropsNonFiniteScores(t *testing.T) {
	records := []models.EquityRecord{
		passing("BLOWUP", 0.20, -0.1, 0.3),
		passing("OK", 0.20, 10, 0.3),
	}

	got := Screen(records)

	assert.Equal(t, []string{"OK"}, tickers(got))
}

func TestScreen_KeepsRecordWithMissingPrice(t *testing.T) {
	noPrice := passing("NOPRICE", 0.30, 8, 0.2)
	noPrice.Price = math.NaN()
	records := []models.EquityRecord{
		passing("A", 0.20, 10, 0.3),
		noPrice,
	}

	got := Screen(records)

	require.Len(t, got, 2)
	assert.Equal(t, []string{"NOPRICE", "A"}, tickers(got))
	assert.True(t, math.IsNaN(got[0].Price))
	assert.InDelta(t, Score(noPrice), got[0].Score, 1e-12)
}

func tickers(rows []models.ScoredEquity) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Ticker)
	}
	return out
}
