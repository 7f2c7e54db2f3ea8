package vallaris

import (
	"context"

	"github.com/paulmach/orb/geojson"
)

// DefaultBaseURL is the Vallaris Maps features API root
const DefaultBaseURL = "https://app.vallarismaps.com/core/api/features/1.1"

// DefaultCollectionID is the hotspot collection shown by default
const DefaultCollectionID = "68db604f6d325faa74ba5bbd"

// FeatureClient defines the interface for fetching feature collections
type FeatureClient interface {
	// GetFeatures retrieves every item of a collection in a single request
	GetFeatures(ctx context.Context, collectionID string) (*geojson.FeatureCollection, error)
}
