package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geopulse/geopulse-terminal/internal/models"
	"github.com/geopulse/geopulse-terminal/internal/report"
)

var fixedNow = time.Date(2025, 10, 1, 14, 5, 9, 0, time.UTC)

func newExporter(t *testing.T) (*Exporter, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "exports")
	e := New(dir)
	e.SetClock(func() time.Time { return fixedNow })
	return e, dir
}

func hotspot(t *testing.T, p orb.Point, date string, frp interface{}) models.Hotspot {
	t.Helper()
	f := geojson.NewFeature(p)
	f.Properties["acq_date"] = date
	if frp != nil {
		f.Properties["frp"] = frp
	}
	h, ok := models.HotspotFromFeature(f)
	require.True(t, ok)
	return h
}

func attr(r *shp.Reader, row, field int) string {
	return strings.TrimRight(r.ReadAttribute(row, field), "\x00 ")
}

func TestExporter_Hotspots(t *testing.T) {
	e, dir := newExporter(t)
	hs := []models.Hotspot{
		hotspot(t, orb.Point{100.5, 13.75}, "2025-10-01", 7.5),
		hotspot(t, orb.Point{101, 14}, "2025-10-02", nil),
	}

	path, err := e.Hotspots(hs)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "hotspots-20251001-140509.shp"), path)
	assert.FileExists(t, filepath.Join(dir, "hotspots-20251001-140509.dbf"))
	assert.NoFileExists(t, filepath.Join(dir, "hotspots-20251001-140509dbf"))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer r.Close()

	fields := r.Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, FieldAcqDate, strings.TrimRight(string(fields[0].Name[:]), "\x00"))

	var rows [][]string
	var points []shp.Point
	for r.Next() {
		n, s := r.Shape()
		p, ok := s.(*shp.Point)
		require.True(t, ok)
		points = append(points, *p)
		rows = append(rows, []string{
			attr(r, n, 0),
			attr(r, n, 1),
			attr(r, n, 2),
		})
	}
	require.Len(t, rows, 2)
	assert.Equal(t, shp.Point{X: 100.5, Y: 13.75}, points[0])
	assert.Equal(t, "2025-10-01", rows[0][0])
	assert.Equal(t, "7.500", strings.TrimSpace(rows[0][1]))
	assert.Equal(t, "High", rows[0][2])
	assert.Equal(t, "Unknown", rows[1][2])
}

func TestExporter_Report(t *testing.T) {
	e, _ := newExporter(t)
	r := report.Build(nil, "All Data")

	path, err := e.Report(r)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
	assert.Contains(t, string(data), "No frequency data")
}

func TestExporter_Alerts(t *testing.T) {
	e, _ := newExporter(t)
	alerts := []models.UserAlert{
		{
			ID:        "a1",
			Longitude: 122,
			Latitude:  -10,
			Title:     "Smoke",
			Severity:  models.SeverityWarning,
			CreatedAt: fixedNow,
		},
	}

	path, err := e.Alerts(alerts)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".geojson"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)

	f := fc.Features[0]
	assert.Equal(t, "a1", f.ID)
	assert.Equal(t, orb.Point{122, -10}, f.Geometry)
	assert.Equal(t, "Smoke", f.Properties.MustString("title"))
	assert.Equal(t, "warning", f.Properties.MustString("severity"))
	assert.Equal(t, "2025-10-01T14:05:09Z", f.Properties.MustString("createdAt"))
	_, hasMessage := f.Properties["message"]
	assert.False(t, hasMessage)
}

func TestAlertCollection_Empty(t *testing.T) {
	fc := AlertCollection(nil)
	assert.Empty(t, fc.Features)
}
