package basemap

import (
	"fmt"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// ReadLines reads every polyline and polygon ring of a shapefile as line
// strings. Other shape types are skipped.
func ReadLines(path string) ([]orb.LineString, error) {
	shape, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening shapefile: %w", err)
	}
	defer shape.Close()

	var lines []orb.LineString
	for shape.Next() {
		_, s := shape.Shape()
		switch g := s.(type) {
		case *shp.PolyLine:
			lines = append(lines, parts(g.Parts, g.Points)...)
		case *shp.Polygon:
			lines = append(lines, parts(g.Parts, g.Points)...)
		}
	}
	if err := shape.Err(); err != nil {
		return nil, fmt.Errorf("reading shapefile: %w", err)
	}
	return lines, nil
}

func parts(idx []int32, points []shp.Point) []orb.LineString {
	out := make([]orb.LineString, 0, len(idx))
	for i := range idx {
		start := int(idx[i])
		end := len(points)
		if i+1 < len(idx) {
			end = int(idx[i+1])
		}
		if start < 0 || end > len(points) || end-start < 2 {
			continue
		}
		ls := make(orb.LineString, 0, end-start)
		for _, p := range points[start:end] {
			ls = append(ls, orb.Point{p.X, p.Y})
		}
		out = append(out, ls)
	}
	return out
}
