package simfin

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/valuescreen/internal/interfaces"
	"github.com/ternarybob/valuescreen/internal/models"
)

const (
	// DefaultBaseURL is the bulk-download endpoint
	DefaultBaseURL = "https://backend.simfin.com/api/bulk-download/s3"

	// DefaultTimeout allows for large archives
	DefaultTimeout = 2 * time.Minute

	// maxDownloadSize caps the archive read into memory
	maxDownloadSize = 512 << 20
)

var zipMagic = []byte("PK\x03\x04")

// ErrSnapshotTooLarge is returned when a download or archive member exceeds the size cap
var ErrSnapshotTooLarge = errors.New("snapshot exceeds size limit")

// Client downloads fundamentals snapshots and implements interfaces.FundamentalsProvider
type Client struct {
	baseURL    string
	apiKey     string
	dataset    string
	variant    string
	columns    Columns
	maxSize    int64
	httpClient *http.Client
	logger     arbor.ILogger
}

var _ interfaces.FundamentalsProvider = (*Client)(nil)

// ClientOption configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDataset selects the bulk dataset and variant
func WithDataset(dataset, variant string) ClientOption {
	return func(c *Client) {
		c.dataset = dataset
		c.variant = variant
	}
}

// WithColumns overrides the CSV column mapping
func WithColumns(columns Columns) ClientOption {
	return func(c *Client) {
		c.columns = columns
	}
}

// NewClient creates a SimFin bulk-download client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		dataset: "derived-shareprices",
		variant: "latest",
		columns: DefaultColumns(),
		maxSize: maxDownloadSize,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the provider name
func (c *Client) Name() string {
	return "simfin"
}

// LoadSnapshot downloads the configured dataset for market and parses every row.
// Any failure, including an empty snapshot, is reported as interfaces.ErrDataUnavailable.
func (c *Client) LoadSnapshot(ctx context.Context, market string) ([]models.EquityRecord, error) {
	data, err := c.download(ctx, market)
	if err != nil {
		return nil, fmt.Errorf("%w: simfin %s/%s: %w", interfaces.ErrDataUnavailable, c.dataset, market, err)
	}

	csvData, err := extractCSV(data, c.maxSize)
	if err != nil {
		return nil, fmt.Errorf("%w: simfin %s/%s: %w", interfaces.ErrDataUnavailable, c.dataset, market, err)
	}

	records, skipped, err := ParseSnapshot(bytes.NewReader(csvData), c.columns)
	if err != nil {
		return nil, fmt.Errorf("%w: simfin %s/%s: %w", interfaces.ErrDataUnavailable, c.dataset, market, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: simfin %s/%s: snapshot is empty", interfaces.ErrDataUnavailable, c.dataset, market)
	}

	if c.logger != nil {
		c.logger.Info().
			Str("dataset", c.dataset).
			Str("market", market).
			Int("rows", len(records)).
			Int("malformed", skipped).
			Msg("SimFin snapshot loaded")
	}

	return records, nil
}

func (c *Client) download(ctx context.Context, market string) ([]byte, error) {
	params := url.Values{}
	params.Set("dataset", c.dataset)
	params.Set("variant", c.variant)
	params.Set("market", market)

	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "api-key "+c.apiKey)

	if c.logger != nil {
		c.logger.Debug().
			Str("url", reqURL).
			Msg("SimFin bulk download request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Dataset:    c.dataset,
		}
	}

	data, err := readLimited(resp.Body, c.maxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return data, nil
}

// readLimited reads r fully, failing rather than truncating past limit bytes
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrSnapshotTooLarge, limit)
	}
	return data, nil
}

// extractCSV returns the first .csv member of a zip archive, or data unchanged
// when it is not an archive
func extractCSV(data []byte, limit int64) ([]byte, error) {
	if !bytes.HasPrefix(data, zipMagic) {
		return data, nil
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		defer rc.Close()
		csvData, err := readLimited(rc, limit)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
		}
		return csvData, nil
	}

	return nil, fmt.Errorf("archive has no csv file")
}
