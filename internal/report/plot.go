package report

import (
	"fmt"
	"strings"
)

// Plot draws the chart as a character grid of the given size. hover marks one
// bucket, -1 for none. The returned lines have no trailing newline.
func Plot(c Chart, buckets []DayBucket, cols, rows, hover int) []string {
	if c.Empty() || cols < 2 || rows < 2 {
		return []string{"No frequency data"}
	}

	grid := make([][]rune, rows)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", cols))
	}

	toCol := func(x float64) int {
		col := int((x - c.PadX) / (c.W - 2*c.PadX) * float64(cols-1))
		return clamp(col, 0, cols-1)
	}
	toRow := func(y float64) int {
		row := int((y - c.PadY) / (c.H - 2*c.PadY) * float64(rows-1))
		return clamp(row, 0, rows-1)
	}

	// Area under the line, column by column, interpolated between points.
	for col := 0; col < cols; col++ {
		x := c.PadX + float64(col)/float64(cols-1)*(c.W-2*c.PadX)
		y := interpolate(c.Points, x)
		top := toRow(y)
		for row := top + 1; row < rows; row++ {
			grid[row][col] = '░'
		}
		grid[top][col] = '─'
	}

	for i, p := range c.Points {
		mark := '●'
		if i == hover {
			mark = '◆'
			col := toCol(p.X)
			for row := range grid {
				if grid[row][col] == ' ' {
					grid[row][col] = '┊'
				}
			}
		}
		grid[toRow(p.Y)][toCol(p.X)] = mark
	}

	lines := make([]string, 0, rows+1)
	for _, r := range grid {
		lines = append(lines, string(r))
	}

	first, last := buckets[0].Date, buckets[len(buckets)-1].Date
	axis := first
	if len(buckets) > 1 && cols > len(first)+len(last)+1 {
		axis = first + strings.Repeat(" ", cols-len(first)-len(last)) + last
	}
	lines = append(lines, axis)

	if hover >= 0 && hover < len(buckets) {
		b := buckets[hover]
		lines = append(lines, fmt.Sprintf("%s: %d", b.Date, b.Count))
	}
	return lines
}

// ColumnX maps a plot column back to chart x, for Nearest lookups
func ColumnX(c Chart, col, cols int) float64 {
	if cols < 2 {
		return c.PadX
	}
	return c.PadX + float64(col)/float64(cols-1)*(c.W-2*c.PadX)
}

func interpolate(pts []Point, x float64) float64 {
	if len(pts) == 1 || x <= pts[0].X {
		return pts[0].Y
	}
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		if x <= b.X {
			if b.X == a.X {
				return b.Y
			}
			t := (x - a.X) / (b.X - a.X)
			return a.Y + t*(b.Y-a.Y)
		}
	}
	return pts[len(pts)-1].Y
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
