package mapview

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

const (
	MinZoom = 1.0
	MaxZoom = 18.0

	// maxLat is the Web Mercator latitude limit
	maxLat = 85.05112878

	earthCircumference = 2 * math.Pi * 6378137.0
	tileSize           = 256.0

	// Terminal cells are roughly twice as tall as they are wide
	cellWidthPx  = 8.0
	cellHeightPx = 16.0
)

// Viewport maps geographic coordinates onto a grid of terminal cells
type Viewport struct {
	Center orb.Point // lon, lat
	Zoom   float64
	Cols   int
	Rows   int
}

// NewViewport creates a viewport; the size is set later on resize
func NewViewport(center orb.Point, zoom float64) Viewport {
	v := Viewport{Zoom: clampZoom(zoom)}
	v.Center = clampPoint(center)
	return v
}

// metersPerPixel at the viewport zoom, measured at the equator
func (v Viewport) metersPerPixel() float64 {
	return earthCircumference / (tileSize * math.Pow(2, v.Zoom))
}

// Project converts a position to fractional cell coordinates
func (v Viewport) Project(p orb.Point) (x, y float64) {
	c := project.WGS84.ToMercator(v.Center)
	m := project.WGS84.ToMercator(clampPoint(p))
	mpp := v.metersPerPixel()
	x = float64(v.Cols)/2 + (m[0]-c[0])/(mpp*cellWidthPx)
	y = float64(v.Rows)/2 - (m[1]-c[1])/(mpp*cellHeightPx)
	return x, y
}

// Cell returns the cell containing p and whether it is on screen
func (v Viewport) Cell(p orb.Point) (col, row int, ok bool) {
	x, y := v.Project(p)
	col, row = int(math.Floor(x)), int(math.Floor(y))
	return col, row, v.Contains(col, row)
}

// Unproject returns the position at the centre of a cell
func (v Viewport) Unproject(col, row int) orb.Point {
	return v.unprojectXY(float64(col)+0.5, float64(row)+0.5)
}

func (v Viewport) unprojectXY(x, y float64) orb.Point {
	c := project.WGS84.ToMercator(v.Center)
	mpp := v.metersPerPixel()
	m := orb.Point{
		c[0] + (x-float64(v.Cols)/2)*mpp*cellWidthPx,
		c[1] - (y-float64(v.Rows)/2)*mpp*cellHeightPx,
	}
	return clampPoint(project.Mercator.ToWGS84(m))
}

// Contains reports whether a cell lies inside the grid
func (v Viewport) Contains(col, row int) bool {
	return col >= 0 && row >= 0 && col < v.Cols && row < v.Rows
}

// Bound is the geographic extent of the grid
func (v Viewport) Bound() orb.Bound {
	nw := v.unprojectXY(0, 0)
	se := v.unprojectXY(float64(v.Cols), float64(v.Rows))
	return orb.Bound{
		Min: orb.Point{math.Min(nw[0], se[0]), math.Min(nw[1], se[1])},
		Max: orb.Point{math.Max(nw[0], se[0]), math.Max(nw[1], se[1])},
	}
}

// Pan moves the centre by whole cells
func (v Viewport) Pan(dCols, dRows int) Viewport {
	v.Center = v.unprojectXY(float64(v.Cols)/2+float64(dCols), float64(v.Rows)/2+float64(dRows))
	return v
}

// WithZoom returns the viewport at zoom z, clamped to the allowed range
func (v Viewport) WithZoom(z float64) Viewport {
	v.Zoom = clampZoom(z)
	return v
}

// WithCenter recentres the viewport
func (v Viewport) WithCenter(p orb.Point) Viewport {
	v.Center = clampPoint(p)
	return v
}

// Resize sets the grid size
func (v Viewport) Resize(cols, rows int) Viewport {
	v.Cols = max(cols, 0)
	v.Rows = max(rows, 0)
	return v
}

func clampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

func clampPoint(p orb.Point) orb.Point {
	lon := math.Mod(p[0]+180, 360)
	if lon < 0 {
		lon += 360
	}
	lon -= 180
	if p[0] == 180 {
		lon = 180
	}
	lat := math.Max(-maxLat, math.Min(maxLat, p[1]))
	return orb.Point{lon, lat}
}
