package mapview

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Distance returns the great-circle distance between two positions in metres
func Distance(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b)
}

// FormatDistance renders metres as "850 m" or "12.3 km"
func FormatDistance(m float64) string {
	if m < 1000 {
		return fmt.Sprintf("%.0f m", math.Round(m))
	}
	return fmt.Sprintf("%.1f km", m/1000)
}

// FormatCoords renders a position as "13.75000°N, 100.50000°E"
func FormatCoords(p orb.Point) string {
	ns, ew := "N", "E"
	lat, lon := p.Lat(), p.Lon()
	if lat < 0 {
		ns, lat = "S", -lat
	}
	if lon < 0 {
		ew, lon = "W", -lon
	}
	return fmt.Sprintf("%.5f°%s, %.5f°%s", lat, ns, lon, ew)
}
