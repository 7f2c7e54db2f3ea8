package mapview

import "github.com/paulmach/orb"

// MarkerKind tells which layer a marker belongs to
type MarkerKind int

const (
	MarkerHotspot MarkerKind = iota
	MarkerAlert
	MarkerUser
	MarkerDraft
)

// Marker is one symbol drawn on the map
type Marker struct {
	Key   string
	Kind  MarkerKind
	Point orb.Point
	Glyph string
	Color string
}

// Diff lists the keys touched by a reconcile
type Diff struct {
	Added   []string
	Removed []string
	Updated []string
}

// Empty reports whether the reconcile changed nothing
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Updated) == 0
}

// Layer keeps the rendered markers of one kind, keyed by identity
type Layer struct {
	markers map[string]Marker
	order   []string
}

// NewLayer creates an empty layer
func NewLayer() *Layer {
	return &Layer{markers: make(map[string]Marker)}
}

// Reconcile brings the layer to the desired set, touching only the markers
// that were added, removed or changed. Later duplicates of a key are ignored.
func (l *Layer) Reconcile(desired []Marker) Diff {
	var d Diff
	want := make(map[string]Marker, len(desired))
	wantOrder := make([]string, 0, len(desired))
	for _, m := range desired {
		if _, dup := want[m.Key]; dup {
			continue
		}
		want[m.Key] = m
		wantOrder = append(wantOrder, m.Key)
	}

	for _, key := range l.order {
		if _, keep := want[key]; !keep {
			delete(l.markers, key)
			d.Removed = append(d.Removed, key)
		}
	}

	for _, key := range wantOrder {
		m := want[key]
		old, exists := l.markers[key]
		switch {
		case !exists:
			d.Added = append(d.Added, key)
		case old != m:
			d.Updated = append(d.Updated, key)
		default:
			continue
		}
		l.markers[key] = m
	}
	l.order = wantOrder
	return d
}

// Get returns the marker with key
func (l *Layer) Get(key string) (Marker, bool) {
	m, ok := l.markers[key]
	return m, ok
}

// Markers returns the markers in desired order
func (l *Layer) Markers() []Marker {
	out := make([]Marker, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, l.markers[key])
	}
	return out
}

// Len returns the number of markers
func (l *Layer) Len() int { return len(l.order) }

// Clear removes every marker
func (l *Layer) Clear() {
	l.markers = make(map[string]Marker)
	l.order = nil
}
