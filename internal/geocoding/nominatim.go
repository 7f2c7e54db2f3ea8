package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/geopulse/geopulse-terminal/internal/metrics"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "GeoPulseTerminal/1.0" // Required by Nominatim ToS
)

// ErrNoResults is returned when a search matches nothing
var ErrNoResults = errors.New("no results found")

// Geocoder resolves coordinates to place names and back via Nominatim
type Geocoder struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	cache      Cache
	logger     zerolog.Logger
	metrics    metrics.Provider

	// minInterval spaces out requests; Nominatim allows 1 req/sec
	minInterval time.Duration
	lastCall    time.Time
	mu          sync.Mutex
}

// Location represents a geocoded location
type Location struct {
	Latitude  float64
	Longitude float64
	Name      string
}

// Option customizes a Geocoder
type Option func(*Geocoder)

func WithBaseURL(u string) Option            { return func(g *Geocoder) { g.baseURL = strings.TrimRight(u, "/") } }
func WithUserAgent(ua string) Option         { return func(g *Geocoder) { g.userAgent = ua } }
func WithCache(c Cache) Option               { return func(g *Geocoder) { g.cache = c } }
func WithLogger(l zerolog.Logger) Option     { return func(g *Geocoder) { g.logger = l } }
func WithMetrics(m metrics.Provider) Option  { return func(g *Geocoder) { g.metrics = m } }
func WithMinInterval(d time.Duration) Option { return func(g *Geocoder) { g.minInterval = d } }

// NewGeocoder creates a new geocoder
func NewGeocoder(opts ...Option) *Geocoder {
	g := &Geocoder{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache:       noopCache{},
		logger:      zerolog.Nop(),
		metrics:     metrics.Noop(),
		minInterval: time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// reverseResponse is the subset of the jsonv2 reverse payload we read
type reverseResponse struct {
	Name    string            `json:"name"`
	Error   string            `json:"error"`
	Address map[string]string `json:"address"`
}

// searchResponse represents one Nominatim search hit
type searchResponse struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// placeKeys is the address precedence used to name a position
var placeKeys = []string{"province", "state", "county", "region", "city", "town", "district"}

// Reverse looks up the place name for a position. An empty name with a nil
// error means the position resolved to nothing nameable.
func (g *Geocoder) Reverse(ctx context.Context, lon, lat float64) (string, error) {
	key := fmt.Sprintf("rev:%.4f,%.4f", lat, lon)
	if v, ok := g.cache.Get(key); ok {
		g.metrics.IncGeocodeCacheHits()
		return string(v), nil
	}
	g.metrics.IncGeocodeCacheMisses()

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("accept-language", "en")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	var resp reverseResponse
	if err := g.get(ctx, "/reverse", params, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("nominatim: %s", resp.Error)
	}

	name := PlaceName(resp.Address, resp.Name)
	g.cache.Set(key, []byte(name))
	return name, nil
}

// ReverseName is Reverse for callers that only care about a name: every
// failure is logged and reported as nil.
func (g *Geocoder) ReverseName(ctx context.Context, lon, lat float64) *string {
	name, err := g.Reverse(ctx, lon, lat)
	if err != nil {
		g.logger.Warn().Err(err).Float64("lon", lon).Float64("lat", lat).Msg("reverse geocoding failed")
		return nil
	}
	if name == "" {
		return nil
	}
	return &name
}

// PlaceName picks the first non-empty address component in precedence
// order, falling back to the feature name.
func PlaceName(address map[string]string, name string) string {
	for _, k := range placeKeys {
		if v := strings.TrimSpace(address[k]); v != "" {
			return v
		}
	}
	return strings.TrimSpace(name)
}

// Search converts a free-form query to coordinates
func (g *Geocoder) Search(ctx context.Context, query string) (*Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	params := url.Values{}
	params.Add("format", "json")
	params.Add("limit", "1")
	params.Add("q", query)

	var results []searchResponse
	if err := g.get(ctx, "/search", params, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w for '%s'", ErrNoResults, query)
	}

	result := results[0]
	lat, err := strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing longitude: %w", err)
	}

	return &Location{
		Latitude:  lat,
		Longitude: lon,
		Name:      result.DisplayName,
	}, nil
}

func (g *Geocoder) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if err := g.throttle(ctx); err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s%s?%s", g.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim API returned status %d", resp.StatusCode)
	}
	if err := gojson.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// throttle waits until minInterval has passed since the previous call
func (g *Geocoder) throttle(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.lastCall.IsZero() {
		if wait := g.minInterval - time.Since(g.lastCall); wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-t.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	g.lastCall = time.Now()
	return nil
}
