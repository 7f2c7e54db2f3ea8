package datefilter

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/geopulse/geopulse-terminal/internal/hotspots"
)

// Preset is a named date window
type Preset string

const (
	PresetNone      Preset = ""
	PresetAll       Preset = "all"
	PresetNow       Preset = "now"
	PresetYesterday Preset = "yesterday"
	Preset7d        Preset = "7d"
	Preset30d       Preset = "30d"
	PresetCustom    Preset = "custom"
)

// Presets lists the selectable presets in display order
var Presets = []Preset{PresetAll, PresetNow, PresetYesterday, Preset7d, Preset30d, PresetCustom}

const day = 24 * time.Hour

// DayLayout is the custom bound input format
const DayLayout = "2006-01-02"

// Label returns the short name shown on the collapsed filter button
func (p Preset) Label() string {
	switch p {
	case PresetAll:
		return "All"
	case PresetNow:
		return "Now"
	case PresetYesterday:
		return "Yesterday"
	case Preset7d:
		return "Last 7d"
	case Preset30d:
		return "Last 30d"
	case PresetCustom:
		return "Custom"
	default:
		return "None"
	}
}

// Title returns the long name shown in the expanded panel
func (p Preset) Title() string {
	switch p {
	case PresetAll:
		return "All Data"
	case PresetNow:
		return "Today (now)"
	case PresetYesterday:
		return "Yesterday"
	case Preset7d:
		return "Last 7 days"
	case Preset30d:
		return "Last 30 days"
	case PresetCustom:
		return "Custom range"
	default:
		return "None"
	}
}

// Selection is the user's current choice
type Selection struct {
	Preset      Preset
	CustomStart string // YYYY-MM-DD or empty
	CustomEnd   string
}

// StartOfDay returns 00:00:00.000 UTC of t's UTC day
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns 23:59:59.999 UTC of t's UTC day
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).Add(day - time.Millisecond)
}

// ParseDay parses a YYYY-MM-DD input as a UTC date
func ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return t, nil
}

// Compute derives the filter range for a selection at instant now.
// All, None and an empty custom selection produce an unbounded range.
func Compute(sel Selection, now time.Time) hotspots.Range {
	now = now.UTC()
	switch sel.Preset {
	case PresetNow:
		return bounds(StartOfDay(now), now)
	case PresetYesterday:
		y := now.Add(-day)
		return bounds(StartOfDay(y), EndOfDay(y))
	case Preset7d:
		return bounds(StartOfDay(now.Add(-6*day)), EndOfDay(now))
	case Preset30d:
		return bounds(StartOfDay(now.Add(-29*day)), EndOfDay(now))
	case PresetCustom:
		var r hotspots.Range
		if t, err := ParseDay(sel.CustomStart); err == nil {
			s := StartOfDay(t)
			r.Start = &s
		}
		if t, err := ParseDay(sel.CustomEnd); err == nil {
			e := EndOfDay(t)
			r.End = &e
		}
		return r
	default:
		return hotspots.Range{}
	}
}

func bounds(start, end time.Time) hotspots.Range {
	return hotspots.Range{Start: &start, End: &end}
}

// Listener receives the computed range after every change
type Listener func(hotspots.Range)

// Filter holds the selection and notifies listeners on every change
type Filter struct {
	mu        sync.Mutex
	sel       Selection
	listeners []Listener
	now       func() time.Time
}

// New creates a filter starting at the given preset
func New(initial Preset) *Filter {
	return &Filter{
		sel: Selection{Preset: initial},
		now: time.Now,
	}
}

// SetClock replaces the time source
func (f *Filter) SetClock(now func() time.Time) {
	f.mu.Lock()
	f.now = now
	f.mu.Unlock()
}

// Subscribe registers a listener
func (f *Filter) Subscribe(l Listener) {
	f.mu.Lock()
	f.listeners = append(f.listeners, l)
	f.mu.Unlock()
}

// Selection returns a copy of the current selection
func (f *Filter) Selection() Selection {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sel
}

// Range computes the active range now
func (f *Filter) Range() hotspots.Range {
	f.mu.Lock()
	sel, now := f.sel, f.now()
	f.mu.Unlock()
	return Compute(sel, now)
}

// SetPreset switches presets. Custom bounds are kept so switching back to
// custom restores them.
func (f *Filter) SetPreset(p Preset) {
	f.update(func(s *Selection) { s.Preset = p })
}

// SetCustomStart sets the custom start day (empty clears it)
func (f *Filter) SetCustomStart(day string) {
	f.update(func(s *Selection) { s.CustomStart = strings.TrimSpace(day) })
}

// SetCustomEnd sets the custom end day (empty clears it)
func (f *Filter) SetCustomEnd(day string) {
	f.update(func(s *Selection) { s.CustomEnd = strings.TrimSpace(day) })
}

// Reset clears the preset and the custom inputs
func (f *Filter) Reset() {
	f.update(func(s *Selection) { *s = Selection{Preset: PresetNone} })
}

// Label returns the button label for the current selection
func (f *Filter) Label() string {
	return f.Selection().Preset.Label()
}

// Preview formats the active range using dates only
func (f *Filter) Preview() string {
	return FormatRange(f.Range())
}

// FormatRange renders a range as "start → end" with "…" for an open bound,
// or "All Data" when unbounded.
func FormatRange(r hotspots.Range) string {
	if r.IsZero() {
		return "All Data"
	}
	start, end := "…", "…"
	if r.Start != nil {
		start = r.Start.UTC().Format(DayLayout)
	}
	if r.End != nil {
		end = r.End.UTC().Format(DayLayout)
	}
	return start + " → " + end
}

func (f *Filter) update(mutate func(*Selection)) {
	f.mu.Lock()
	mutate(&f.sel)
	r := Compute(f.sel, f.now())
	listeners := append([]Listener(nil), f.listeners...)
	f.mu.Unlock()

	for _, l := range listeners {
		l(r)
	}
}
