package geolocation

import (
	"context"
	"fmt"
	"net/http"
	"time"

	gojson "github.com/goccy/go-json"
)

// DefaultIPServiceURL resolves the caller's public IP to a position
const DefaultIPServiceURL = "https://ipapi.co/json/"

// IPLocator estimates the position from the public IP address
type IPLocator struct {
	url        string
	userAgent  string
	httpClient *http.Client
}

// NewIPLocator creates an IP-based locator for url
func NewIPLocator(url, userAgent string) *IPLocator {
	if url == "" {
		url = DefaultIPServiceURL
	}
	return &IPLocator{
		url:       url,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ipResponse accepts both the ipapi.co and ip-api.com field names
type ipResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Error     bool     `json:"error"`
	Reason    string   `json:"reason"`
}

func (l *IPLocator) CurrentPosition(ctx context.Context, _ Options) (Position, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return Position{}, fmt.Errorf("creating request: %w", err)
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return Position{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Position{}, fmt.Errorf("ip location service returned status %d", resp.StatusCode)
	}

	var r ipResponse
	if err := gojson.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Position{}, fmt.Errorf("decoding response: %w", err)
	}
	if r.Error {
		return Position{}, fmt.Errorf("%w: %s", ErrUnavailable, r.Reason)
	}

	lat, lon := r.Latitude, r.Longitude
	if lat == nil || lon == nil {
		lat, lon = r.Lat, r.Lon
	}
	if lat == nil || lon == nil {
		return Position{}, fmt.Errorf("%w: response has no coordinates", ErrUnavailable)
	}

	// City-level estimate
	return Position{Longitude: *lon, Latitude: *lat, Accuracy: 5000, Timestamp: time.Now()}, nil
}
