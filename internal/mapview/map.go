package mapview

import (
	"context"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/geopulse/geopulse-terminal/internal/hotspots"
	"github.com/geopulse/geopulse-terminal/internal/models"
)

// Zoom levels and flight durations used by the view
const (
	ZoomGeolocate  = 9.0
	ZoomMyLocation = 12.0
	ZoomAlertFocus = 11.0

	FlyGeolocate  = time.Second
	FlyMyLocation = 1500 * time.Millisecond
	FlyAlertFocus = 1200 * time.Millisecond
)

// Basemap supplies background line geometry for a viewport
type Basemap interface {
	LinesInBound(ctx context.Context, b orb.Bound) ([]orb.LineString, error)
}

// ClickKind says what a click hit
type ClickKind int

const (
	ClickEmpty ClickKind = iota
	ClickHotspot
	ClickAlert
	ClickPlace
)

// ClickResult is the outcome of a click on the map
type ClickResult struct {
	Kind  ClickKind
	Key   string
	Point orb.Point
}

type flight struct {
	from, to Viewport
	start    time.Time
	duration time.Duration
}

// Map owns the viewport, marker layers, cursor and the single popup.
// After Close every operation is a no-op.
type Map struct {
	view Viewport

	hotspotLayer *Layer
	alertLayer   *Layer
	hotspots     map[string]models.Hotspot
	alerts       map[string]models.UserAlert

	user  *orb.Point
	draft *orb.Point
	popup *Popup

	cursorCol, cursorRow int
	flight               *flight

	basemap    Basemap
	coast      []orb.LineString
	coastBound orb.Bound
	coastOK    bool

	logger zerolog.Logger
	closed bool
}

// New creates a map centred on center at zoom
func New(center orb.Point, zoom float64, basemap Basemap, logger zerolog.Logger) *Map {
	return &Map{
		view:         NewViewport(center, zoom),
		hotspotLayer: NewLayer(),
		alertLayer:   NewLayer(),
		hotspots:     make(map[string]models.Hotspot),
		alerts:       make(map[string]models.UserAlert),
		basemap:      basemap,
		logger:       logger,
	}
}

// Close releases the map; later calls do nothing
func (m *Map) Close() {
	if m.closed {
		return
	}
	m.closed = true
	m.hotspotLayer.Clear()
	m.alertLayer.Clear()
	m.popup = nil
	m.flight = nil
	m.coast = nil
}

// Closed reports whether Close was called
func (m *Map) Closed() bool { return m.closed }

// Viewport returns the current viewport
func (m *Map) Viewport() Viewport { return m.view }

// Resize fits the map to cols x rows cells
func (m *Map) Resize(cols, rows int) {
	if m.closed {
		return
	}
	first := m.view.Cols == 0 || m.view.Rows == 0
	m.view = m.view.Resize(cols, rows)
	if first || !m.view.Contains(m.cursorCol, m.cursorRow) {
		m.cursorCol, m.cursorRow = cols/2, rows/2
	}
}

// SetHotspots reconciles the hotspot layer with hs
func (m *Map) SetHotspots(hs []models.Hotspot) Diff {
	if m.closed {
		return Diff{}
	}
	desired := make([]Marker, 0, len(hs))
	data := make(map[string]models.Hotspot, len(hs))
	for _, h := range hs {
		style := hotspots.Classify(h.FRP, h.HasFRP)
		desired = append(desired, Marker{
			Key:   h.Key,
			Kind:  MarkerHotspot,
			Point: h.Point,
			Glyph: style.Glyph,
			Color: style.Color,
		})
		if _, dup := data[h.Key]; !dup {
			data[h.Key] = h
		}
	}
	m.hotspots = data

	d := m.hotspotLayer.Reconcile(desired)
	m.dropPopupIfGone(PopupHotspot, d.Removed)
	return d
}

// SetAlerts reconciles the alert layer with as
func (m *Map) SetAlerts(as []models.UserAlert) Diff {
	if m.closed {
		return Diff{}
	}
	desired := make([]Marker, 0, len(as))
	data := make(map[string]models.UserAlert, len(as))
	for _, a := range as {
		desired = append(desired, Marker{
			Key:   a.ID,
			Kind:  MarkerAlert,
			Point: orb.Point{a.Longitude, a.Latitude},
			Glyph: a.Severity.Glyph(),
			Color: a.Severity.Color(),
		})
		data[a.ID] = a
	}
	m.alerts = data

	d := m.alertLayer.Reconcile(desired)
	m.dropPopupIfGone(PopupAlert, d.Removed)
	return d
}

func (m *Map) dropPopupIfGone(kind PopupKind, removed []string) {
	if m.popup == nil || m.popup.Kind != kind {
		return
	}
	for _, key := range removed {
		if key == m.popup.Key {
			m.popup = nil
			return
		}
	}
}

// HotspotMarkers returns the rendered hotspot markers
func (m *Map) HotspotMarkers() []Marker { return m.hotspotLayer.Markers() }

// AlertMarkers returns the rendered alert markers
func (m *Map) AlertMarkers() []Marker { return m.alertLayer.Markers() }

// SetUserPosition places the user marker, creating it on the first call.
// It reports whether the marker was created.
func (m *Map) SetUserPosition(p orb.Point) bool {
	if m.closed {
		return false
	}
	created := m.user == nil
	m.user = &p
	return created
}

// UserPosition returns the last known user position
func (m *Map) UserPosition() (orb.Point, bool) {
	if m.user == nil {
		return orb.Point{}, false
	}
	return *m.user, true
}

// SetDraft shows or hides (nil) the pending alert location
func (m *Map) SetDraft(p *orb.Point) {
	if m.closed {
		return
	}
	if p == nil {
		m.draft = nil
		return
	}
	cp := *p
	m.draft = &cp
}

// OpenPopup shows p, replacing any open popup
func (m *Map) OpenPopup(p Popup) {
	if m.closed {
		return
	}
	m.popup = &p
}

// ClosePopup hides the popup
func (m *Map) ClosePopup() { m.popup = nil }

// Popup returns the open popup, if any
func (m *Map) Popup() *Popup { return m.popup }

// OpenHotspotPopup opens the popup of a rendered hotspot
func (m *Map) OpenHotspotPopup(key string) bool {
	h, ok := m.hotspots[key]
	if !ok || m.closed {
		return false
	}
	var user *orb.Point
	if u, ok := m.UserPosition(); ok {
		user = &u
	}
	m.OpenPopup(HotspotPopup(h, user))
	return true
}

// OpenAlertPopup opens the popup of a rendered alert
func (m *Map) OpenAlertPopup(id string) bool {
	a, ok := m.alerts[id]
	if !ok || m.closed {
		return false
	}
	m.OpenPopup(AlertPopup(a))
	return true
}

// FocusAlert closes the popup and flies to the alert
func (m *Map) FocusAlert(id string, now time.Time) bool {
	a, ok := m.alerts[id]
	if !ok || m.closed {
		return false
	}
	m.ClosePopup()
	m.FlyTo(orb.Point{a.Longitude, a.Latitude}, ZoomAlertFocus, FlyAlertFocus, now)
	return true
}

// Cursor returns the pointer cell
func (m *Map) Cursor() (col, row int) { return m.cursorCol, m.cursorRow }

// CursorPoint returns the position under the pointer
func (m *Map) CursorPoint() orb.Point {
	return m.view.Unproject(m.cursorCol, m.cursorRow)
}

// SetCursor moves the pointer to a cell, clamped to the grid
func (m *Map) SetCursor(col, row int) {
	if m.closed {
		return
	}
	m.cursorCol = clampInt(col, 0, m.view.Cols-1)
	m.cursorRow = clampInt(row, 0, m.view.Rows-1)
}

// MoveCursor moves the pointer, panning when it would leave the grid
func (m *Map) MoveCursor(dCols, dRows int) {
	if m.closed {
		return
	}
	col, row := m.cursorCol+dCols, m.cursorRow+dRows
	panCols, panRows := 0, 0
	if col < 0 {
		panCols = col
	} else if col >= m.view.Cols {
		panCols = col - m.view.Cols + 1
	}
	if row < 0 {
		panRows = row
	} else if row >= m.view.Rows {
		panRows = row - m.view.Rows + 1
	}
	if panCols != 0 || panRows != 0 {
		m.Pan(panCols, panRows)
	}
	m.SetCursor(col, row)
}

// Pan shifts the view by cells and cancels any flight
func (m *Map) Pan(dCols, dRows int) {
	if m.closed {
		return
	}
	m.flight = nil
	m.view = m.view.Pan(dCols, dRows)
}

// ZoomBy changes the zoom around the view centre
func (m *Map) ZoomBy(delta float64) {
	if m.closed {
		return
	}
	m.flight = nil
	m.view = m.view.WithZoom(m.view.Zoom + delta)
}

// FlyTo starts an eased transition to center at zoom. A non-positive
// duration jumps straight there.
func (m *Map) FlyTo(center orb.Point, zoom float64, d time.Duration, now time.Time) {
	if m.closed {
		return
	}
	target := m.view.WithCenter(center).WithZoom(zoom)
	if d <= 0 {
		m.flight = nil
		m.view = target
		return
	}
	m.flight = &flight{from: m.view, to: target, start: now, duration: d}
}

// Flying reports whether a transition is in progress
func (m *Map) Flying() bool { return m.flight != nil }

// Advance moves an in-progress flight to its state at now. It reports whether
// the flight is still running.
func (m *Map) Advance(now time.Time) bool {
	if m.closed || m.flight == nil {
		return false
	}
	f := m.flight
	t := float64(now.Sub(f.start)) / float64(f.duration)
	if t >= 1 {
		m.view = f.to.Resize(m.view.Cols, m.view.Rows)
		m.flight = nil
		return false
	}
	t = easeOutCubic(math.Max(t, 0))

	from, to := f.from.Center, f.to.Center
	m.view.Center = clampPoint(orb.Point{
		from[0] + (to[0]-from[0])*t,
		from[1] + (to[1]-from[1])*t,
	})
	m.view.Zoom = clampZoom(f.from.Zoom + (f.to.Zoom-f.from.Zoom)*t)
	return true
}

func easeOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// MarkerAt returns the marker drawn at a cell, or the nearest one in the
// surrounding cells. Alerts sit above the user marker, which sits above
// hotspots.
func (m *Map) MarkerAt(col, row int) (Marker, bool) {
	if m.closed {
		return Marker{}, false
	}
	for radius := 0; radius <= 1; radius++ {
		if mk, ok := m.hit(m.alertLayer.Markers(), col, row, radius); ok {
			return mk, true
		}
		if m.user != nil {
			uc, ur, on := m.view.Cell(*m.user)
			if on && absInt(uc-col) <= radius && absInt(ur-row) <= radius {
				return Marker{Key: "user", Kind: MarkerUser, Point: *m.user}, true
			}
		}
		if mk, ok := m.hit(m.hotspotLayer.Markers(), col, row, radius); ok {
			return mk, true
		}
	}
	return Marker{}, false
}

func (m *Map) hit(markers []Marker, col, row, radius int) (Marker, bool) {
	var best Marker
	found := false
	bestBucket := hotspots.Bucket(-1)
	for _, mk := range markers {
		c, r, _ := m.view.Cell(mk.Point)
		if absInt(c-col) > radius || absInt(r-row) > radius {
			continue
		}
		if mk.Kind != MarkerHotspot {
			return mk, true
		}
		if b := m.bucketOf(mk); !found || b > bestBucket {
			best, bestBucket, found = mk, b, true
		}
	}
	return best, found
}

// Click handles a pointer click at a cell. While placing, hotspot markers
// ignore clicks and the click position is returned for the draft. Alert
// markers always open their popup. Clicking empty map closes the popup.
func (m *Map) Click(col, row int, placing bool) ClickResult {
	if m.closed {
		return ClickResult{}
	}
	p := m.view.Unproject(col, row)

	mk, ok := m.MarkerAt(col, row)
	if ok && mk.Kind == MarkerAlert {
		m.OpenAlertPopup(mk.Key)
		return ClickResult{Kind: ClickAlert, Key: mk.Key, Point: mk.Point}
	}
	if placing {
		return ClickResult{Kind: ClickPlace, Point: p}
	}
	if ok && mk.Kind == MarkerHotspot {
		m.OpenHotspotPopup(mk.Key)
		return ClickResult{Kind: ClickHotspot, Key: mk.Key, Point: mk.Point}
	}
	m.ClosePopup()
	return ClickResult{Kind: ClickEmpty, Point: p}
}

// RefreshBasemap drops cached basemap lines so the next render reloads them
func (m *Map) RefreshBasemap() {
	m.coastOK = false
	m.coast = nil
}

// coastlines returns basemap lines for the current bound, cached until the
// bound changes. Lookup errors are logged and leave the map without lines.
func (m *Map) coastlines() []orb.LineString {
	if m.basemap == nil {
		return nil
	}
	b := m.view.Bound()
	if m.coastOK && b == m.coastBound {
		return m.coast
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	lines, err := m.basemap.LinesInBound(ctx, b)
	if err != nil {
		m.logger.Warn().Err(err).Msg("basemap lookup failed")
		lines = nil
	}
	m.coast, m.coastBound, m.coastOK = lines, b, true
	return lines
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
