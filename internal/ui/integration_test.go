package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geopulse/geopulse-terminal/internal/alerts"
	"github.com/geopulse/geopulse-terminal/internal/export"
	"github.com/geopulse/geopulse-terminal/internal/geolocation"
	"github.com/geopulse/geopulse-terminal/internal/report"
	"github.com/geopulse/geopulse-terminal/internal/vallaris"
)

func TestIntegration_FetchFromServer(t *testing.T) {
	body, err := os.ReadFile(filepath.Join("..", "vallaris", "testdata", "collection.json"))
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/fires/items", r.URL.Path)
		w.Header().Set("Content-Type", "application/geo+json")
		w.Write(body)
	}))
	defer server.Close()

	client := vallaris.NewClient("key", vallaris.WithBaseURL(server.URL))
	m := newTestModel(t, &mockFeatureClient{})

	msg := fetchFeatures(context.Background(), client, "fires")()
	fetched, ok := msg.(featuresFetchedMsg)
	require.True(t, ok, "want featuresFetchedMsg, got %T", msg)
	require.NoError(t, fetched.err)

	m = send(m, fetched)
	assert.Equal(t, StateDisplay, m.State())
	assert.NotEmpty(t, m.mapv.HotspotMarkers())
}

func TestIntegration_FetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	client := vallaris.NewClient("key", vallaris.WithBaseURL(server.URL))
	m := newTestModel(t, &mockFeatureClient{})
	m = send(m, fetchFeatures(context.Background(), client, "fires")())

	assert.Equal(t, StateError, m.State())
	assert.Error(t, m.err)
}

func TestIntegration_WatchDeliversPositions(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	holder := &watchHolder{}
	loc := geolocation.Static{Longitude: 100.5, Latitude: 13.75}

	msg := startWatch(ctx, loc, geolocation.Options{}, time.Hour, holder)()
	started, ok := msg.(watchStartedMsg)
	require.True(t, ok, "want watchStartedMsg, got %T", msg)

	got := waitForLocation(ctx, started.updates)()
	pos, ok := got.(positionMsg)
	require.True(t, ok, "want positionMsg, got %T", got)
	assert.True(t, pos.fromWatch)
	assert.Equal(t, 100.5, pos.position.Longitude)
	assert.Equal(t, 13.75, pos.position.Latitude)

	holder.clear()
	holder.clear()
}

func TestIntegration_WatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msg := startWatch(ctx, geolocation.Static{}, geolocation.Options{}, time.Hour, &watchHolder{})()
	assert.Nil(t, msg)
	assert.Nil(t, waitForLocation(ctx, make(chan locationUpdate))())
}

func TestIntegration_LocateOnceUnavailable(t *testing.T) {
	msg := locateOnce(context.Background(), geolocation.Unavailable{}, geolocation.Options{})()
	perr, ok := msg.(positionErrMsg)
	require.True(t, ok, "want positionErrMsg, got %T", msg)
	assert.ErrorIs(t, perr.err, geolocation.ErrUnavailable)
	assert.False(t, perr.fromWatch)
}

func TestIntegration_WatchFeedsModel(t *testing.T) {
	m, _ := loadedModel(t)
	m.locator = geolocation.Static{Longitude: 100.5, Latitude: 13.75}

	msg := startWatch(m.ctx, m.locator, m.locateOpts, time.Hour, m.watch)()
	m = send(m, msg)
	require.NotNil(t, m.updates)

	m = send(m, waitForLocation(m.ctx, m.updates)())
	st := m.Session().Snapshot()
	require.NotNil(t, st.Coords)
	assert.Equal(t, 100.5, st.Coords.Lon())

	// teardown clears the watch and stops pending waits
	m.Close()
	assert.Nil(t, waitForLocation(m.ctx, m.updates)())
}

func TestIntegration_Export(t *testing.T) {
	dir := t.TempDir()
	e := export.New(dir)
	e.SetClock(func() time.Time { return testNow })

	store := alerts.NewStore()
	d := alerts.NewDrafter(store)
	require.NoError(t, d.Start())
	require.NoError(t, d.Place(100, 14))
	require.NoError(t, d.SetTitle("Smoke"))
	_, err := d.Save()
	require.NoError(t, err)

	m, _ := loadedModel(t)
	msg := exportAll(e, m.data.hotspots, report.Build(geojson.NewFeatureCollection(), "All Data"), store.List())()
	done, ok := msg.(exportDoneMsg)
	require.True(t, ok, "want exportDoneMsg, got %T", msg)
	require.NoError(t, done.err)
	assert.Len(t, done.paths, 3)
	for _, p := range done.paths {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}

	m = send(m, done)
	assert.Contains(t, m.status, "Exported")
}
