package session

import (
	"sync"

	"github.com/paulmach/orb"
)

// State is a point-in-time copy of the location context
type State struct {
	Coords    *orb.Point // lon, lat
	PlaceName *string
	Updating  bool
}

// Session holds the user's location context for the lifetime of one run.
// It is created at startup, shared by pointer and closed on teardown.
type Session struct {
	mu     sync.RWMutex
	state  State
	closed bool
}

// New creates an empty session
func New() *Session {
	return &Session{}
}

// SetCoords records the user's position
func (s *Session) SetCoords(lon, lat float64) {
	p := orb.Point{lon, lat}
	s.mutate(func(st *State) { st.Coords = &p })
}

// SetPlaceName records the resolved place name; nil clears it
func (s *Session) SetPlaceName(name *string) {
	var cp *string
	if name != nil {
		v := *name
		cp = &v
	}
	s.mutate(func(st *State) { st.PlaceName = cp })
}

// SetUpdating flags a reverse lookup in progress
func (s *Session) SetUpdating(updating bool) {
	s.mutate(func(st *State) { st.Updating = updating })
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Close ends the session; later mutations are ignored
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether Close was called
func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Session) mutate(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	fn(&s.state)
}

func (st State) clone() State {
	out := State{Updating: st.Updating}
	if st.Coords != nil {
		p := *st.Coords
		out.Coords = &p
	}
	if st.PlaceName != nil {
		n := *st.PlaceName
		out.PlaceName = &n
	}
	return out
}
