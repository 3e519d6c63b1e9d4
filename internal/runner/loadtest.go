package runner

import "context"

// LoadTest is the validated input of a run.
type LoadTest struct {
	URL         string
	Method      string
	Total       int // request count, at least 1
	Concurrency int // concurrency limit, at least 1
	RunID       string
	Observer    Observer
}

// RunLoadTest sends lt.Total requests through send with at most
// lt.Concurrency in flight and returns every outcome.
func RunLoadTest(ctx context.Context, lt LoadTest, send SendFunc) TestOutcome {
	r := New(Options{
		Concurrency:   lt.Concurrency,
		TotalRequests: lt.Total,
		Observer:      lt.Observer,
		RunID:         lt.RunID,
		Factory: func() *Unit {
			return NewUnit(send, lt.Method, lt.URL)
		},
	})
	return r.Run(ctx)
}
