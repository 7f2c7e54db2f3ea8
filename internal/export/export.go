// Package export writes the current view to files: hotspots as a point
// shapefile, the frequency report as SVG and user alerts as GeoJSON.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/geopulse/geopulse-terminal/internal/hotspots"
	"github.com/geopulse/geopulse-terminal/internal/models"
	"github.com/geopulse/geopulse-terminal/internal/report"
)

// Shapefile attribute columns
const (
	FieldAcqDate   = "ACQ_DATE"
	FieldFRP       = "FRP"
	FieldIntensity = "INTENSITY"
)

// Exporter writes timestamped files into a directory
type Exporter struct {
	dir string
	now func() time.Time
}

// New creates an exporter writing into dir
func New(dir string) *Exporter {
	return &Exporter{dir: dir, now: time.Now}
}

// SetClock replaces the clock used for file names
func (e *Exporter) SetClock(now func() time.Time) {
	e.now = now
}

func (e *Exporter) path(prefix, ext string) (string, error) {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	name := fmt.Sprintf("%s-%s%s", prefix, e.now().Format("20060102-150405"), ext)
	return filepath.Join(e.dir, name), nil
}

// Hotspots writes hs as a point shapefile and returns the .shp path
func (e *Exporter) Hotspots(hs []models.Hotspot) (string, error) {
	path, err := e.path("hotspots", ".shp")
	if err != nil {
		return "", err
	}
	if err := WriteHotspots(path, hs); err != nil {
		return "", err
	}
	return path, nil
}

// Report writes the frequency chart as SVG and returns its path
func (e *Exporter) Report(r report.Report) (string, error) {
	path, err := e.path("report", ".svg")
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if err := report.WriteSVG(f, r, -1); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, f.Close()
}

// Alerts writes alerts as a GeoJSON FeatureCollection and returns its path
func (e *Exporter) Alerts(alerts []models.UserAlert) (string, error) {
	path, err := e.path("alerts", ".geojson")
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(AlertCollection(alerts), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding alerts: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing alerts: %w", err)
	}
	return path, nil
}

// WriteHotspots writes a point shapefile with date, power and intensity
// columns. Hotspots without power get an FRP of 0 and intensity "Unknown".
func WriteHotspots(path string, hs []models.Hotspot) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return fmt.Errorf("creating shapefile: %w", err)
	}
	werr := writeHotspotRecords(w, hs)
	w.Close()
	if werr != nil {
		return werr
	}

	// go-shp names the attribute table "<base>dbf"; readers expect "<base>.dbf"
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return fmt.Errorf("renaming shapefile attributes: %w", err)
	}
	return nil
}

func writeHotspotRecords(w *shp.Writer, hs []models.Hotspot) error {
	fields := []shp.Field{
		shp.StringField(FieldAcqDate, 32),
		shp.FloatField(FieldFRP, 12, 3),
		shp.StringField(FieldIntensity, 16),
	}
	if err := w.SetFields(fields); err != nil {
		return fmt.Errorf("setting shapefile fields: %w", err)
	}

	for _, h := range hs {
		n := int(w.Write(&shp.Point{X: h.Point.Lon(), Y: h.Point.Lat()}))
		style := hotspots.Classify(h.FRP, h.HasFRP)
		if err := w.WriteAttribute(n, 0, h.AcqDate); err != nil {
			return fmt.Errorf("writing %s: %w", FieldAcqDate, err)
		}
		if err := w.WriteAttribute(n, 1, h.FRP); err != nil {
			return fmt.Errorf("writing %s: %w", FieldFRP, err)
		}
		if err := w.WriteAttribute(n, 2, style.Level); err != nil {
			return fmt.Errorf("writing %s: %w", FieldIntensity, err)
		}
	}
	return nil
}

// AlertCollection converts alerts to GeoJSON point features
func AlertCollection(alerts []models.UserAlert) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, a := range alerts {
		f := geojson.NewFeature(orb.Point{a.Longitude, a.Latitude})
		f.ID = a.ID
		f.Properties["title"] = a.Title
		if a.Message != "" {
			f.Properties["message"] = a.Message
		}
		f.Properties["severity"] = string(a.Severity)
		f.Properties["createdAt"] = a.CreatedAt.UTC().Format(time.RFC3339)
		fc.Append(f)
	}
	return fc
}
