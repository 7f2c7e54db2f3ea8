package geolocation

import (
	"context"
	"fmt"
	"time"

	"github.com/geopulse/geopulse-terminal/internal/geocoding"
)

// Searcher resolves a free-form place query
type Searcher interface {
	Search(ctx context.Context, query string) (*geocoding.Location, error)
}

// PlaceLocator resolves a configured place name to a position
type PlaceLocator struct {
	searcher Searcher
	query    string
}

// NewPlaceLocator creates a locator that searches for query
func NewPlaceLocator(s Searcher, query string) *PlaceLocator {
	return &PlaceLocator{searcher: s, query: query}
}

func (p *PlaceLocator) CurrentPosition(ctx context.Context, _ Options) (Position, error) {
	loc, err := p.searcher.Search(ctx, p.query)
	if err != nil {
		return Position{}, fmt.Errorf("locate %q: %w", p.query, err)
	}
	return Position{Longitude: loc.Longitude, Latitude: loc.Latitude, Timestamp: time.Now()}, nil
}
