package runner

import (
	"context"

	"github.com/torosent/volley/internal/timer"
)

// SendFunc issues one HTTP request and returns the response status code.
// A non-nil error means no response was received.
type SendFunc func(ctx context.Context, method, url string) (int, error)

// Unit is a single timed request. It performs exactly one call to its
// SendFunc and never retries.
type Unit struct {
	t *timer.Timer[int]
}

// NewUnit prepares a request without sending it. The latency clock starts
// when Run is first called.
func NewUnit(send SendFunc, method, url string) *Unit {
	call := func(ctx context.Context) (int, error) {
		return send(ctx, method, url)
	}
	return &Unit{t: timer.Wrap(timer.Once(call))}
}

// Run sends the request and reduces its result to a RequestOutcome.
func (u *Unit) Run(ctx context.Context) RequestOutcome {
	m := u.t.Run(ctx)
	if m.Err != nil {
		return RequestOutcome{Err: ClassifyTransportError(m.Err), Duration: m.Elapsed}
	}
	return RequestOutcome{Status: m.Value, Duration: m.Elapsed}
}
