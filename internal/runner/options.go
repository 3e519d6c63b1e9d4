package runner

import (
	"github.com/oklog/ulid/v2"
)

// Factory builds the next not-yet-started unit. It is called once per
// admitted request, from the dispatching goroutine.
type Factory func() *Unit

// Observer is notified as units move through the admission window.
// Implementations must be safe for concurrent use.
type Observer interface {
	UnitStarted()
	UnitFinished(RequestOutcome)
}

// Options configure the Runner.
type Options struct {
	Concurrency   int      // maximum units in flight (C)
	TotalRequests int      // units to run to completion (N)
	Factory       Factory  // unit constructor (required)
	Observer      Observer // optional live metrics sink
	RunID         string   // identifies the run; generated when empty
}

func (o *Options) normalize() {
	if o.Concurrency <= 0 {
		o.Concurrency = 1
	}
	if o.TotalRequests < 0 {
		o.TotalRequests = 0
	}
	if o.Observer == nil {
		o.Observer = nopObserver{}
	}
	if o.RunID == "" {
		o.RunID = ulid.Make().String()
	}
}

type nopObserver struct{}

func (nopObserver) UnitStarted()                {}
func (nopObserver) UnitFinished(RequestOutcome) {}

// Observers fans notifications out to several observers in order.
type Observers []Observer

func (obs Observers) UnitStarted() {
	for _, o := range obs {
		if o != nil {
			o.UnitStarted()
		}
	}
}

func (obs Observers) UnitFinished(out RequestOutcome) {
	for _, o := range obs {
		if o != nil {
			o.UnitFinished(out)
		}
	}
}
