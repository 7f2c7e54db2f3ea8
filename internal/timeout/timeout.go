package timeout

import (
	"context"
	"errors"
	"time"
)

// ErrTimedOut is set on an Outcome whose deadline passed first
var ErrTimedOut = errors.New("operation timed out")

// Outcome is the explicit result of a time-boxed task
type Outcome[T any] struct {
	Value    T
	Err      error
	TimedOut bool
}

// OK reports whether the task finished in time without error
func (o Outcome[T]) OK() bool {
	return !o.TimedOut && o.Err == nil
}

// Run executes fn with a context cancelled after d and waits for whichever
// comes first. When the deadline wins, fn keeps its cancelled context and its
// late result is discarded.
func Run[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) Outcome[T] {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan Outcome[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- Outcome[T]{Value: v, Err: err}
	}()

	select {
	case o := <-done:
		if o.Err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return timedOut[T]()
		}
		return o
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return timedOut[T]()
		}
		var zero T
		return Outcome[T]{Value: zero, Err: ctx.Err()}
	}
}

func timedOut[T any]() Outcome[T] {
	var zero T
	return Outcome[T]{Value: zero, Err: ErrTimedOut, TimedOut: true}
}
