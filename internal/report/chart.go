package report

import (
	"math"
	"strconv"
	"strings"
)

// Chart geometry, in SVG user units
const (
	ChartWidth  = 560
	ChartHeight = 180
	ChartPadX   = 32
	ChartPadY   = 20
	GridLines   = 4
)

// Point is a chart vertex
type Point struct {
	X, Y float64
}

// Chart is the laid-out line chart for a bucket series
type Chart struct {
	W, H       float64
	PadX, PadY float64
	MaxY       int
	Points     []Point
}

// NewChart spreads buckets evenly across the inner width and scales counts to
// the tallest bucket.
func NewChart(buckets []DayBucket) Chart {
	c := Chart{W: ChartWidth, H: ChartHeight, PadX: ChartPadX, PadY: ChartPadY}
	if len(buckets) == 0 {
		return c
	}

	innerW := c.W - 2*c.PadX
	innerH := c.H - 2*c.PadY
	for _, b := range buckets {
		if b.Count > c.MaxY {
			c.MaxY = b.Count
		}
	}
	var stepX float64
	if len(buckets) > 1 {
		stepX = innerW / float64(len(buckets)-1)
	}

	c.Points = make([]Point, len(buckets))
	for i, b := range buckets {
		ratio := 0.0
		if c.MaxY > 0 {
			ratio = float64(b.Count) / float64(c.MaxY)
		}
		c.Points[i] = Point{
			X: c.PadX + float64(i)*stepX,
			Y: c.PadY + (1-ratio)*innerH,
		}
	}
	return c
}

// Empty reports whether there is nothing to plot
func (c Chart) Empty() bool {
	return len(c.Points) == 0
}

// Baseline is the y of the chart floor
func (c Chart) Baseline() float64 {
	return c.H - c.PadY
}

// LinePath returns the SVG path through every point
func (c Chart) LinePath() string {
	var sb strings.Builder
	for i, p := range c.Points {
		if i == 0 {
			sb.WriteString("M ")
		} else {
			sb.WriteString(" L ")
		}
		sb.WriteString(num(p.X))
		sb.WriteByte(' ')
		sb.WriteString(num(p.Y))
	}
	return sb.String()
}

// AreaPath closes the line down to the baseline
func (c Chart) AreaPath() string {
	if c.Empty() {
		return ""
	}
	last, first := c.Points[len(c.Points)-1], c.Points[0]
	base := num(c.Baseline())
	return c.LinePath() + " L " + num(last.X) + " " + base + " L " + num(first.X) + " " + base + " Z"
}

// GridYs returns the y of each horizontal grid line
func (c Chart) GridYs() []float64 {
	ys := make([]float64, GridLines)
	for i := range ys {
		ys[i] = c.PadY + float64(i)/float64(GridLines-1)*(c.H-2*c.PadY)
	}
	return ys
}

// Nearest returns the index of the point horizontally closest to x, or -1
// when the chart is empty. The first of equally close points wins.
func (c Chart) Nearest(x float64) int {
	best, bestDist := -1, math.Inf(1)
	for i, p := range c.Points {
		if d := math.Abs(p.X - x); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
