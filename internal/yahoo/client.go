// Package yahoo provides daily price history from the Yahoo Finance v8 chart API.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/tidwall/gjson"

	"github.com/ternarybob/valuescreen/internal/interfaces"
	"github.com/ternarybob/valuescreen/internal/models"
)

const (
	// DefaultBaseURL is the Yahoo Finance query host
	DefaultBaseURL = "https://query2.finance.yahoo.com"

	// DefaultTimeout is the default HTTP timeout
	DefaultTimeout = 15 * time.Second

	defaultUserAgent = "valuescreen/1.0"
)

// ErrNoResult is returned when the chart response carries no result for the symbol
var ErrNoResult = errors.New("yahoo: no result")

// ChartError is an error reported inside a chart response body
type ChartError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *ChartError) Error() string {
	return fmt.Sprintf("yahoo chart error: %s: %s (status: %d)", e.Code, e.Description, e.StatusCode)
}

// Client fetches chart history and implements interfaces.PriceHistoryProvider
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     arbor.ILogger
}

var _ interfaces.PriceHistoryProvider = (*Client)(nil)

// Option configures the Client
type Option func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent sets the User-Agent header; Yahoo rejects empty agents
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// NewClient creates a Yahoo chart client
func NewClient(logger arbor.ILogger, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider name
func (c *Client) Name() string {
	return "yahoo"
}

// History returns daily closes between from and to, oldest first.
// Adjusted closes are used when present; null entries (halted days) are dropped.
func (c *Client) History(ctx context.Context, symbol string, from, to time.Time) (models.PriceSeries, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return models.PriceSeries{}, fmt.Errorf("%w: empty symbol", interfaces.ErrDataUnavailable)
	}

	body, err := c.fetchChart(ctx, symbol, from, to)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: yahoo history for %s: %w", interfaces.ErrDataUnavailable, symbol, err)
	}

	series, err := parseChart(symbol, body)
	if err != nil {
		return models.PriceSeries{}, fmt.Errorf("%w: yahoo history for %s: %w", interfaces.ErrDataUnavailable, symbol, err)
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("symbol", symbol).
			Int("points", series.Len()).
			Msg("Yahoo history loaded")
	}

	return series, nil
}

func (c *Client) fetchChart(ctx context.Context, symbol string, from, to time.Time) ([]byte, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.Unix(), 10))
	params.Set("interval", "1d")
	params.Set("events", "div,splits")

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Yahoo reports errors in the chart envelope even on 4xx
		if chartErr := chartError(resp.StatusCode, body); chartErr != nil {
			return nil, chartErr
		}
		return nil, fmt.Errorf("yahoo http %d", resp.StatusCode)
	}

	return body, nil
}

func chartError(status int, body []byte) error {
	if !gjson.ValidBytes(body) {
		return nil
	}
	e := gjson.GetBytes(body, "chart.error")
	if !e.Exists() || e.Type == gjson.Null {
		return nil
	}
	return &ChartError{
		StatusCode:  status,
		Code:        e.Get("code").String(),
		Description: e.Get("description").String(),
	}
}

// parseChart extracts (timestamp, close) pairs from a v8 chart body
func parseChart(symbol string, body []byte) (models.PriceSeries, error) {
	if !gjson.ValidBytes(body) {
		return models.PriceSeries{}, fmt.Errorf("invalid chart json")
	}
	if err := chartError(http.StatusOK, body); err != nil {
		return models.PriceSeries{}, err
	}

	result := gjson.GetBytes(body, "chart.result.0")
	if !result.Exists() {
		return models.PriceSeries{}, ErrNoResult
	}

	timestamps := result.Get("timestamp").Array()
	closes := result.Get("indicators.adjclose.0.adjclose").Array()
	if len(closes) != len(timestamps) {
		closes = result.Get("indicators.quote.0.close").Array()
	}
	if len(closes) != len(timestamps) {
		return models.PriceSeries{}, fmt.Errorf("chart has %d timestamps but %d closes", len(timestamps), len(closes))
	}

	series := models.PriceSeries{Symbol: symbol, Points: make([]models.PricePoint, 0, len(timestamps))}
	for i, ts := range timestamps {
		if closes[i].Type != gjson.Number {
			continue
		}
		price := closes[i].Float()
		if price <= 0 {
			continue
		}
		series.Points = append(series.Points, models.PricePoint{
			Date:  time.Unix(ts.Int(), 0).UTC(),
			Close: price,
		})
	}

	return series, nil
}
