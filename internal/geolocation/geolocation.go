package geolocation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/geopulse/geopulse-terminal/internal/timeout"
)

var (
	ErrUnavailable = errors.New("position unavailable")
	ErrTimeout     = errors.New("position request timed out")
)

// Position is a located point with optional accuracy in metres
type Position struct {
	Longitude float64
	Latitude  float64
	Accuracy  float64
	Timestamp time.Time
}

// Options tune a position request
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration // zero means no limit
	MaximumAge   time.Duration // accept a cached fix up to this old
}

// Locator is a source of the user's position
type Locator interface {
	CurrentPosition(ctx context.Context, opts Options) (Position, error)
}

// Locate asks l for a position, honouring opts.Timeout
func Locate(ctx context.Context, l Locator, opts Options) (Position, error) {
	if opts.Timeout <= 0 {
		return l.CurrentPosition(ctx, opts)
	}
	o := timeout.Run(ctx, opts.Timeout, func(ctx context.Context) (Position, error) {
		return l.CurrentPosition(ctx, opts)
	})
	if o.TimedOut {
		return Position{}, ErrTimeout
	}
	return o.Value, o.Err
}

// Cached wraps a locator and reuses its last fix while younger than the
// request's MaximumAge.
type Cached struct {
	inner Locator
	now   func() time.Time

	mu   sync.Mutex
	last *Position
}

// NewCached wraps inner
func NewCached(inner Locator) *Cached {
	return &Cached{inner: inner, now: time.Now}
}

func (c *Cached) CurrentPosition(ctx context.Context, opts Options) (Position, error) {
	c.mu.Lock()
	if c.last != nil && opts.MaximumAge > 0 && c.now().Sub(c.last.Timestamp) <= opts.MaximumAge {
		p := *c.last
		c.mu.Unlock()
		return p, nil
	}
	c.mu.Unlock()

	p, err := c.inner.CurrentPosition(ctx, opts)
	if err != nil {
		return Position{}, err
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = c.now()
	}

	c.mu.Lock()
	c.last = &p
	c.mu.Unlock()
	return p, nil
}

// Static always reports the same configured position
type Static struct {
	Longitude float64
	Latitude  float64
}

func (s Static) CurrentPosition(ctx context.Context, _ Options) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	return Position{Longitude: s.Longitude, Latitude: s.Latitude, Timestamp: time.Now()}, nil
}

// Unavailable is a locator for when no position source is configured
type Unavailable struct{}

func (Unavailable) CurrentPosition(context.Context, Options) (Position, error) {
	return Position{}, ErrUnavailable
}

// Watcher polls a locator until cleared
type Watcher struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Watch polls l every interval, calling onPosition when the fix changes and
// onError on failures. Call Clear to stop.
func Watch(ctx context.Context, l Locator, opts Options, interval time.Duration,
	onPosition func(Position), onError func(error)) *Watcher {
	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last *Position
		poll := func() {
			p, err := Locate(ctx, l, opts)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				if onError != nil {
					onError(fmt.Errorf("watch position: %w", err))
				}
				return
			}
			if last != nil && last.Longitude == p.Longitude && last.Latitude == p.Latitude {
				return
			}
			last = &p
			onPosition(p)
		}

		poll()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				poll()
			}
		}
	}()
	return w
}

// Clear stops the watch and waits for the poller to exit. Safe to call more
// than once.
func (w *Watcher) Clear() {
	if w == nil {
		return
	}
	w.once.Do(func() {
		w.cancel()
		<-w.done
	})
}
