package hotspots

import (
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/geopulse/geopulse-terminal/internal/models"
)

// Range is an inclusive time window. A nil bound is unbounded.
type Range struct {
	Start *time.Time
	End   *time.Time
}

// IsZero reports whether the range applies no filtering
func (r Range) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// Contains reports whether t falls inside the range, bounds included
func (r Range) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

var acqLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseAcqDate parses an acquisition date string. Values without a zone are
// taken as UTC.
func ParseAcqDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range acqLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// FilterByRange returns a new collection holding the features of fc that fall
// inside r. Features with a missing or unparseable acq_date are kept. The
// source collection is left untouched.
func FilterByRange(fc *geojson.FeatureCollection, r Range) *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()
	if fc == nil {
		return out
	}
	out.BBox = fc.BBox
	for k, v := range fc.ExtraMembers {
		if out.ExtraMembers == nil {
			out.ExtraMembers = make(map[string]interface{}, len(fc.ExtraMembers))
		}
		out.ExtraMembers[k] = v
	}

	out.Features = make([]*geojson.Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		if keep(f, r) {
			out.Features = append(out.Features, f)
		}
	}
	return out
}

func keep(f *geojson.Feature, r Range) bool {
	if r.IsZero() {
		return true
	}
	raw, ok := models.AcqDate(f)
	if !ok {
		return true
	}
	t, ok := ParseAcqDate(raw)
	if !ok {
		return true
	}
	return r.Contains(t)
}

// Points converts the point features of fc into hotspots, skipping anything
// without point geometry. Repeated keys get an occurrence suffix ("#2", "#3")
// so every feature keeps its own marker.
func Points(fc *geojson.FeatureCollection) []models.Hotspot {
	if fc == nil {
		return nil
	}
	out := make([]models.Hotspot, 0, len(fc.Features))
	seen := make(map[string]int, len(fc.Features))
	for _, f := range fc.Features {
		h, ok := models.HotspotFromFeature(f)
		if !ok {
			continue
		}
		seen[h.Key]++
		if n := seen[h.Key]; n > 1 {
			h.Key = h.Key + "#" + strconv.Itoa(n)
		}
		out = append(out, h)
	}
	return out
}
