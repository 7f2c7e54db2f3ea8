package ui

import (
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/geopulse/geopulse-terminal/internal/geolocation"
	"github.com/geopulse/geopulse-terminal/internal/icons"
)

// Message types for async operations

// featuresFetchedMsg is sent when the hotspot collection has been fetched
type featuresFetchedMsg struct {
	collection *geojson.FeatureCollection
	err        error
}

// RefreshMsg asks for a wholesale re-fetch, as a page reload would
type RefreshMsg struct{}

// positionMsg carries a geolocation fix
type positionMsg struct {
	position  geolocation.Position
	fromWatch bool
}

// positionErrMsg is sent when a position request fails
type positionErrMsg struct {
	err       error
	fromWatch bool
}

// watchStartedMsg hands the watch channel to the model
type watchStartedMsg struct {
	updates <-chan locationUpdate
}

// locationUpdate is one item pushed by the geolocation watch
type locationUpdate struct {
	position geolocation.Position
	err      error
}

// placeNameMsg is sent when reverse geocoding completes
type placeNameMsg struct {
	name *string
}

// iconsLoadedMsg is sent when marker icons are ready
type iconsLoadedMsg struct {
	icons map[icons.Kind]icons.Icon
}

// basemapReadyMsg is sent when basemap provisioning finishes
type basemapReadyMsg struct {
	downloaded bool
	err        error
}

// flyTickMsg advances a map flight
type flyTickMsg time.Time

// exportDoneMsg is sent when an export finishes
type exportDoneMsg struct {
	paths []string
	err   error
}

// errMsg is a message type for errors
type errMsg struct {
	err error
}
