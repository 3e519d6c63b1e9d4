// Package timer measures how long an operation takes from the moment it is
// first driven until it reaches a terminal state.
//
// A [Timer] wraps a steppable [Poller]. The clock starts on the first call to
// [Timer.Poll], not when the Timer is constructed, so time an operation spends
// queued behind a concurrency cap is not counted:
//
//	t := timer.Wrap(timer.Once(func(ctx context.Context) (int, error) {
//		return send(ctx)
//	}))
//	// ... later, once admitted:
//	m := t.Run(ctx)
//	fmt.Println(m.Value, m.Err, m.Elapsed)
//
// A Timer is driven by a single goroutine. [Timer.Elapsed] may be read from
// the same goroutine at any point and never decreases.
package timer

import (
	"context"
	"time"
)

// Poller is an operation that may need several steps to finish.
// Poll returns done == false while the operation is still pending.
type Poller[T any] interface {
	Poll(ctx context.Context) (value T, done bool, err error)
}

// PollerFunc adapts a function to the Poller interface.
type PollerFunc[T any] func(ctx context.Context) (T, bool, error)

func (f PollerFunc[T]) Poll(ctx context.Context) (T, bool, error) {
	return f(ctx)
}

// Once adapts a blocking call into a Poller that finishes on its first step.
func Once[T any](fn func(ctx context.Context) (T, error)) Poller[T] {
	return PollerFunc[T](func(ctx context.Context) (T, bool, error) {
		v, err := fn(ctx)
		return v, true, err
	})
}

// Measured is the terminal result of a timed operation.
type Measured[T any] struct {
	Value   T
	Err     error
	Elapsed time.Duration
}

type state uint8

const (
	unstarted state = iota
	running
	done
)

// Timer decorates a Poller with elapsed-time measurement.
type Timer[T any] struct {
	inner  Poller[T]
	now    func() time.Time
	state  state
	start  time.Time
	result Measured[T]
}

// Option configures a Timer.
type Option func(*config)

type config struct {
	now func() time.Time
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// Wrap returns an unstarted Timer around p.
func Wrap[T any](p Poller[T], opts ...Option) *Timer[T] {
	cfg := config{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Timer[T]{inner: p, now: cfg.now}
}

// Poll advances the wrapped operation by one step. The first call starts the
// clock. When the operation completes the elapsed time is frozen and every
// later call returns the same result without polling the operation again.
func (t *Timer[T]) Poll(ctx context.Context) (Measured[T], bool) {
	switch t.state {
	case done:
		return t.result, true
	case unstarted:
		t.start = t.now()
		t.state = running
	}

	value, finished, err := t.inner.Poll(ctx)
	if !finished {
		return Measured[T]{}, false
	}

	t.result = Measured[T]{
		Value:   value,
		Err:     err,
		Elapsed: nonNegative(t.now().Sub(t.start)),
	}
	t.state = done
	return t.result, true
}

// Run polls until the operation completes. If ctx is done between polls the
// timer stops with ctx's error and the time elapsed so far.
func (t *Timer[T]) Run(ctx context.Context) Measured[T] {
	for {
		if m, ok := t.Poll(ctx); ok {
			return m
		}
		if err := ctx.Err(); err != nil {
			t.result = Measured[T]{Err: err, Elapsed: t.Elapsed()}
			t.state = done
			return t.result
		}
	}
}

// Elapsed reports the time since the first Poll. It is zero before the
// first Poll and fixed once the operation has completed.
func (t *Timer[T]) Elapsed() time.Duration {
	switch t.state {
	case running:
		return nonNegative(t.now().Sub(t.start))
	case done:
		return t.result.Elapsed
	default:
		return 0
	}
}

// Measure runs fn once and reports how long it took.
func Measure[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) Measured[T] {
	return Wrap(Once(fn)).Run(ctx)
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
