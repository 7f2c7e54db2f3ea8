package models

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func newFeature(lon, lat float64, props map[string]interface{}) *geojson.Feature {
	f := geojson.NewFeature(orb.Point{lon, lat})
	for k, v := range props {
		f.Properties[k] = v
	}
	return f
}

func TestHotspotFromFeature(t *testing.T) {
	f := newFeature(100.5, 13.7, map[string]interface{}{
		"acq_date":   "2024-01-01",
		"frp":        3.5,
		"satellite":  "N",
		"confidence": "h",
	})

	h, ok := HotspotFromFeature(f)
	if !ok {
		t.Fatal("HotspotFromFeature() returned ok=false for a point feature")
	}
	if h.Point.Lon() != 100.5 || h.Point.Lat() != 13.7 {
		t.Errorf("Point = %v, want [100.5 13.7]", h.Point)
	}
	if h.AcqDate != "2024-01-01" {
		t.Errorf("AcqDate = %q, want 2024-01-01", h.AcqDate)
	}
	if !h.HasFRP || h.FRP != 3.5 {
		t.Errorf("FRP = %v (has=%v), want 3.5", h.FRP, h.HasFRP)
	}

	extra := h.ExtraAttributes()
	if len(extra) != 2 {
		t.Fatalf("ExtraAttributes() len = %d, want 2", len(extra))
	}
	if extra[0].Name != "confidence" || extra[1].Name != "satellite" {
		t.Errorf("ExtraAttributes() not sorted: %+v", extra)
	}
}

func TestHotspotFromFeature_NonPoint(t *testing.T) {
	f := geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}})
	if _, ok := HotspotFromFeature(f); ok {
		t.Error("line feature should not produce a hotspot")
	}
	if _, ok := HotspotFromFeature(nil); ok {
		t.Error("nil feature should not produce a hotspot")
	}
}

func TestFRP_Types(t *testing.T) {
	tests := []struct {
		name   string
		value  interface{}
		want   float64
		wantOK bool
	}{
		{"float", 4.2, 4.2, true},
		{"int", 7, 7, true},
		{"numeric string", " 2.5 ", 2.5, true},
		{"garbage string", "hot", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFeature(0, 0, map[string]interface{}{"frp": tt.value})
			got, ok := FRP(f)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("FRP() = %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestHotspotKey_StableAndIDPreferred(t *testing.T) {
	a := newFeature(1, 2, map[string]interface{}{"acq_date": "2024-01-01", "frp": 1.0})
	b := newFeature(1, 2, map[string]interface{}{"acq_date": "2024-01-01", "frp": 1.0})

	ha, _ := HotspotFromFeature(a)
	hb, _ := HotspotFromFeature(b)
	if ha.Key != hb.Key {
		t.Errorf("identical records produced different keys: %q vs %q", ha.Key, hb.Key)
	}

	b.ID = "abc"
	hb, _ = HotspotFromFeature(b)
	if hb.Key != "id:abc" {
		t.Errorf("Key = %q, want id:abc", hb.Key)
	}
}
