// Package runner provides the core load test execution engine for volley.
//
// A run sends a fixed number of requests (N) to one target while keeping at
// most a fixed number (C) in flight:
//
//	outcome := runner.RunLoadTest(ctx, runner.LoadTest{
//		URL:         "http://localhost:3000/echo",
//		Method:      http.MethodGet,
//		Total:       1000,
//		Concurrency: 10,
//	}, sender.Send)
//
// # Units
//
// Each request is a [Unit]: one call to a [SendFunc], timed from the moment
// the unit is admitted rather than when it was built. Whatever the call
// returns is final. A missing response becomes a [TransportError] inside the
// [RequestOutcome]; it never stops the run.
//
// # Admission window
//
// [Runner] admits units through an errgroup with a concurrency limit. A unit
// starts as soon as a slot frees up, and [Runner.Run] returns once all N have
// completed. Outcomes arrive in completion order, which under C > 1 differs
// from submission order.
//
// # Observers
//
// An [Observer] sees every unit start and finish. Live progress, dashboards
// and Prometheus metrics hang off this hook; [WithFailureLogging] adds
// throttled logging of failed requests.
package runner
