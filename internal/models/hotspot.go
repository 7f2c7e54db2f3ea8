package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Property names used by the hotspot feed
const (
	PropAcqDate = "acq_date"
	PropFRP     = "frp"
)

// Hotspot is a read-only view over one point feature of a hotspot collection.
// The underlying feature is never modified.
type Hotspot struct {
	Key        string
	Point      orb.Point
	AcqDate    string  // as received, any precision
	FRP        float64 // fire radiative power
	HasFRP     bool
	Properties geojson.Properties
}

// HotspotFromFeature builds a Hotspot from a feature. The second return value
// is false when the feature has no point geometry.
func HotspotFromFeature(f *geojson.Feature) (Hotspot, bool) {
	if f == nil {
		return Hotspot{}, false
	}
	p, ok := f.Geometry.(orb.Point)
	if !ok {
		return Hotspot{}, false
	}

	h := Hotspot{
		Point:      p,
		Properties: f.Properties,
	}
	h.AcqDate, _ = AcqDate(f)
	h.FRP, h.HasFRP = FRP(f)
	h.Key = featureKey(f, h)
	return h, true
}

// AcqDate returns the acquisition date string of a feature, if any
func AcqDate(f *geojson.Feature) (string, bool) {
	if f == nil || f.Properties == nil {
		return "", false
	}
	s, ok := f.Properties[PropAcqDate].(string)
	s = strings.TrimSpace(s)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// FRP returns the fire radiative power of a feature. Numbers encoded as
// strings are accepted; anything else counts as absent.
func FRP(f *geojson.Feature) (float64, bool) {
	if f == nil || f.Properties == nil {
		return 0, false
	}
	switch v := f.Properties[PropFRP].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// ExtraAttributes returns the non-standard properties sorted by key
func (h Hotspot) ExtraAttributes() []Attribute {
	attrs := make([]Attribute, 0, len(h.Properties))
	for k, v := range h.Properties {
		if k == PropAcqDate || k == PropFRP || v == nil {
			continue
		}
		attrs = append(attrs, Attribute{Name: k, Value: fmt.Sprint(v)})
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Name < attrs[j].Name })
	return attrs
}

// Attribute is a single name/value pair shown in popups
type Attribute struct {
	Name  string
	Value string
}

// featureKey derives a stable identity for marker reconciliation.
// Feature ids win; otherwise position, date and power identify the record.
func featureKey(f *geojson.Feature, h Hotspot) string {
	if f.ID != nil {
		if id := fmt.Sprint(f.ID); id != "" {
			return "id:" + id
		}
	}
	frp := "-"
	if h.HasFRP {
		frp = strconv.FormatFloat(h.FRP, 'f', -1, 64)
	}
	return fmt.Sprintf("pt:%.6f,%.6f:%s:%s", h.Point.Lon(), h.Point.Lat(), h.AcqDate, frp)
}
