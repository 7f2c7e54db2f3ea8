package vallaris

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"github.com/geopulse/geopulse-terminal/internal/metrics"
)

// ErrMissingAPIKey is returned when the client was built without a key
var ErrMissingAPIKey = errors.New("vallaris api key is not configured")

// maxBodySize bounds the collection payload read into memory
const maxBodySize = 256 << 20

// Client implements FeatureClient against the Vallaris features API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	userAgent  string
	logger     zerolog.Logger
	metrics    metrics.Provider
}

// Option customizes a Client
type Option func(*Client)

// WithBaseURL overrides the API root
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.httpClient.Timeout = d } }

// WithLogger sets the logger
func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.logger = l } }

// WithMetrics sets the metrics provider
func WithMetrics(m metrics.Provider) Option { return func(c *Client) { c.metrics = m } }

// NewClient creates a new features client
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: "GeoPulseTerminal/1.0",
		logger:    zerolog.Nop(),
		metrics:   metrics.Noop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetFeatures retrieves the items of a collection. The body is decoded as a
// FeatureCollection without further validation; there is no paging, retry
// or caching.
func (c *Client) GetFeatures(ctx context.Context, collectionID string) (*geojson.FeatureCollection, error) {
	start := time.Now()
	fc, err := c.getFeatures(ctx, collectionID)

	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
		c.logger.Error().Err(err).Str("collection", collectionID).Msg("error fetching map features")
	} else {
		c.logger.Debug().
			Str("collection", collectionID).
			Int("features", len(fc.Features)).
			Dur("took", time.Since(start)).
			Msg("fetched map features")
	}
	c.metrics.ObserveFetch(outcome, time.Since(start))
	return fc, err
}

func (c *Client) getFeatures(ctx context.Context, collectionID string) (*geojson.FeatureCollection, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s/collections/%s/items?%s", c.baseURL, url.PathEscape(collectionID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch features: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return fc, nil
}
