package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/valuescreen/internal/interfaces"
)

const chartBody = `{"chart":{"result":[{
	"meta":{"symbol":"TQQQ","currency":"USD"},
	"timestamp":[1736173800,1736260200,1736346600,1736433000],
	"indicators":{
		"quote":[{"close":[100.0,101.0,null,103.0]}],
		"adjclose":[{"adjclose":[99.0,100.0,null,102.0]}]
	}
}],"error":null}}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(arbor.NewLogger(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithUserAgent("test-agent"))
}

func TestClient_History(t *testing.T) {
	var gotPath, gotInterval, gotAgent, gotPeriod1 string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		gotPeriod1 = r.URL.Query().Get("period1")
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(chartBody))
	})

	from := time.Unix(1733500000, 0)
	series, err := c.History(context.Background(), "tqqq", from, from.AddDate(0, 1, 0))
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/TQQQ", gotPath)
	assert.Equal(t, "1d", gotInterval)
	assert.Equal(t, "1733500000", gotPeriod1)
	assert.Equal(t, "test-agent", gotAgent)

	assert.Equal(t, "TQQQ", series.Symbol)
	require.Len(t, series.Points, 3)
	assert.Equal(t, []float64{99, 100, 102}, []float64{series.Points[0].Close, series.Points[1].Close, series.Points[2].Close})
	assert.Equal(t, time.Unix(1736433000, 0).UTC(), series.Points[2].Date)
}

func TestParseChart_FallsBackToQuoteClose(t *testing.T) {
	body := []byte(`{"chart":{"result":[{"timestamp":[1,2],"indicators":{"quote":[{"close":[10.5,11.5]}]}}],"error":null}}`)

	series, err := parseChart("X", body)
	require.NoError(t, err)

	require.Len(t, series.Points, 2)
	assert.Equal(t, 11.5, series.Points[1].Close)
}

func TestParseChart_NoTradingDays(t *testing.T) {
	body := []byte(`{"chart":{"result":[{"meta":{},"indicators":{"quote":[{}]}}],"error":null}}`)

	series, err := parseChart("X", body)
	require.NoError(t, err)
	assert.Equal(t, 0, series.Len())
}

func TestParseChart_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"chart":`},
		{"empty result", `{"chart":{"result":[],"error":null}}`},
		{"mismatched arrays", `{"chart":{"result":[{"timestamp":[1,2,3],"indicators":{"quote":[{"close":[1]}]}}],"error":null}}`},
		{"embedded error", `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseChart("X", []byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestClient_HistoryHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})

	_, err := c.History(context.Background(), "NOPE", time.Now().AddDate(0, -1, 0), time.Now())

	require.Error(t, err)
	assert.True(t, errors.Is(err, interfaces.ErrDataUnavailable))
	var chartErr *ChartError
	require.True(t, errors.As(err, &chartErr))
	assert.Equal(t, "Not Found", chartErr.Code)
	assert.Equal(t, http.StatusNotFound, chartErr.StatusCode)
}

func TestClient_HistoryEmptySymbol(t *testing.T) {
	c := NewClient(nil)

	_, err := c.History(context.Background(), " ", time.Now(), time.Now())

	assert.True(t, errors.Is(err, interfaces.ErrDataUnavailable))
}
