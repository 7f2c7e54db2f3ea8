package mapview

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/paulmach/orb"

	"github.com/geopulse/geopulse-terminal/internal/hotspots"
)

const (
	coastColor = "#3b5b7a"
	userColor  = "#3b82f6"
	draftColor = "#a855f7"
	userGlyph  = '◉'
	draftGlyph = '✚'
	coastGlyph = '·'
	emptyGlyph = ' '
)

type cell struct {
	r     rune
	color string
	bold  bool
}

// Grid is the rasterised map, one cell per terminal character
type Grid struct {
	Cols, Rows int
	cells      []cell
	cursorCol  int
	cursorRow  int
	showCursor bool
}

// At returns the glyph and colour drawn at a cell
func (g *Grid) At(col, row int) (rune, string) {
	if col < 0 || row < 0 || col >= g.Cols || row >= g.Rows {
		return emptyGlyph, ""
	}
	c := g.cells[row*g.Cols+col]
	return c.r, c.color
}

func (g *Grid) set(col, row int, c cell) {
	if col < 0 || row < 0 || col >= g.Cols || row >= g.Rows {
		return
	}
	g.cells[row*g.Cols+col] = c
}

// Rasterize draws every layer onto a grid. Later layers overwrite earlier
// ones: coastline, hotspots, draft, user, alerts.
func (m *Map) Rasterize() *Grid {
	v := m.view
	g := &Grid{Cols: v.Cols, Rows: v.Rows, cells: make([]cell, v.Cols*v.Rows)}
	for i := range g.cells {
		g.cells[i] = cell{r: emptyGlyph}
	}
	if m.closed || v.Cols == 0 || v.Rows == 0 {
		return g
	}

	for _, ls := range m.coastlines() {
		m.drawLine(g, ls)
	}
	hs := m.hotspotsByBucket()
	for i := len(hs) - 1; i >= 0; i-- {
		mk := hs[i]
		m.drawMarker(g, mk.Point, firstRune(mk.Glyph), mk.Color, false)
	}
	if m.draft != nil {
		m.drawMarker(g, *m.draft, draftGlyph, draftColor, true)
	}
	if m.user != nil {
		m.drawMarker(g, *m.user, userGlyph, userColor, true)
	}
	for _, mk := range m.alertLayer.Markers() {
		m.drawMarker(g, mk.Point, firstRune(mk.Glyph), mk.Color, true)
	}

	g.cursorCol, g.cursorRow, g.showCursor = m.cursorCol, m.cursorRow, true
	return g
}

// hotspotsByBucket orders hotspot markers strongest first, keeping list
// order among equals, which is the order hit resolves a shared cell in.
func (m *Map) hotspotsByBucket() []Marker {
	mks := m.hotspotLayer.Markers()
	slices.SortStableFunc(mks, func(a, b Marker) int {
		return cmp.Compare(m.bucketOf(b), m.bucketOf(a))
	})
	return mks
}

func (m *Map) bucketOf(mk Marker) hotspots.Bucket {
	h := m.hotspots[mk.Key]
	return hotspots.BucketFor(h.FRP, h.HasFRP)
}

func (m *Map) drawMarker(g *Grid, p orb.Point, r rune, color string, bold bool) {
	col, row, ok := m.view.Cell(p)
	if !ok {
		return
	}
	g.set(col, row, cell{r: r, color: color, bold: bold})
}

// drawLine plots a line string with Bresenham steps between projected
// vertices, marking only empty cells.
func (m *Map) drawLine(g *Grid, ls orb.LineString) {
	for i := 1; i < len(ls); i++ {
		// segments crossing the antimeridian would streak across the grid
		if math.Abs(ls[i][0]-ls[i-1][0]) > 180 {
			continue
		}
		x0, y0 := m.view.Project(ls[i-1])
		x1, y1 := m.view.Project(ls[i])
		var ok bool
		if x0, y0, x1, y1, ok = clip(x0, y0, x1, y1, float64(g.Cols), float64(g.Rows)); !ok {
			continue
		}
		plot(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Floor(x1)), int(math.Floor(y1)), func(c, r int) {
			if col, ok := g.index(c, r); ok && g.cells[col].r == emptyGlyph {
				g.cells[col] = cell{r: coastGlyph, color: coastColor}
			}
		})
	}
}

func (g *Grid) index(col, row int) (int, bool) {
	if col < 0 || row < 0 || col >= g.Cols || row >= g.Rows {
		return 0, false
	}
	return row*g.Cols + col, true
}

// clip trims a segment to the grid rectangle (Liang-Barsky)
func clip(x0, y0, x1, y1, w, h float64) (float64, float64, float64, float64, bool) {
	t0, t1 := 0.0, 1.0
	dx, dy := x1-x0, y1-y0
	for _, e := range [4][2]float64{{-dx, x0}, {dx, w - x0}, {-dy, y0}, {dy, h - y0}} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, r)
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

func plot(x0, y0, x1, y1 int, fn func(x, y int)) {
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for steps := 0; steps < 1<<16; steps++ {
		fn(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// String renders the grid with ANSI colours, one line per row
func (g *Grid) String() string {
	var b strings.Builder
	for row := 0; row < g.Rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		var run strings.Builder
		var runCell cell
		flush := func() {
			if run.Len() == 0 {
				return
			}
			b.WriteString(cellStyle(runCell, false).Render(run.String()))
			run.Reset()
		}
		for col := 0; col < g.Cols; col++ {
			c := g.cells[row*g.Cols+col]
			if g.showCursor && col == g.cursorCol && row == g.cursorRow {
				flush()
				r := c.r
				if r == emptyGlyph {
					r = '+'
				}
				b.WriteString(cellStyle(c, true).Render(string(r)))
				continue
			}
			if c.color != runCell.color || c.bold != runCell.bold {
				flush()
				runCell = c
			}
			run.WriteRune(c.r)
		}
		flush()
	}
	return b.String()
}

// Plain renders the grid without styling
func (g *Grid) Plain() string {
	var b strings.Builder
	for row := 0; row < g.Rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		for col := 0; col < g.Cols; col++ {
			b.WriteRune(g.cells[row*g.Cols+col].r)
		}
	}
	return b.String()
}

// Render draws the map at its current size
func (m *Map) Render() string {
	return m.Rasterize().String()
}

func cellStyle(c cell, cursor bool) lipgloss.Style {
	s := lipgloss.NewStyle()
	if c.color != "" {
		s = s.Foreground(lipgloss.Color(c.color))
	}
	if c.bold {
		s = s.Bold(true)
	}
	if cursor {
		s = s.Reverse(true)
	}
	return s
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return '?'
}
