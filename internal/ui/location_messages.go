package ui

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/geopulse/geopulse-terminal/internal/geolocation"
)

// PlaceNamer resolves coordinates to a place name; nil means unknown
type PlaceNamer interface {
	ReverseName(ctx context.Context, lon, lat float64) *string
}

// watchHolder keeps the live watch reachable from every copy of the model
type watchHolder struct {
	mu      sync.Mutex
	watcher *geolocation.Watcher
}

func (h *watchHolder) set(w *geolocation.Watcher) {
	h.mu.Lock()
	h.watcher = w
	h.mu.Unlock()
}

func (h *watchHolder) clear() {
	h.mu.Lock()
	w := h.watcher
	h.mu.Unlock()
	w.Clear()
}

// locateOnce performs the one-shot position request
func locateOnce(ctx context.Context, l geolocation.Locator, opts geolocation.Options) tea.Cmd {
	return func() tea.Msg {
		p, err := geolocation.Locate(ctx, l, opts)
		if err != nil {
			return positionErrMsg{err: err}
		}
		return positionMsg{position: p}
	}
}

// startWatch begins the continuous watch. Updates are pushed into a channel
// drained by waitForLocation.
func startWatch(ctx context.Context, l geolocation.Locator, opts geolocation.Options,
	interval time.Duration, holder *watchHolder) tea.Cmd {
	return func() tea.Msg {
		updates := make(chan locationUpdate, 8)
		send := func(u locationUpdate) {
			select {
			case updates <- u:
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		holder.set(geolocation.Watch(ctx, l, opts, interval,
			func(p geolocation.Position) { send(locationUpdate{position: p}) },
			func(err error) { send(locationUpdate{err: err}) },
		))
		return watchStartedMsg{updates: updates}
	}
}

// waitForLocation blocks until the watch reports
func waitForLocation(ctx context.Context, updates <-chan locationUpdate) tea.Cmd {
	return func() tea.Msg {
		select {
		case u := <-updates:
			if u.err != nil {
				return positionErrMsg{err: u.err, fromWatch: true}
			}
			return positionMsg{position: u.position, fromWatch: true}
		case <-ctx.Done():
			return nil
		}
	}
}

// reverseGeocode resolves the place name for a fix
func reverseGeocode(ctx context.Context, namer PlaceNamer, lon, lat float64) tea.Cmd {
	return func() tea.Msg {
		return placeNameMsg{name: namer.ReverseName(ctx, lon, lat)}
	}
}
