// Package metrics turns request outcomes into the numbers volley reports.
//
// # Summary
//
// [Summarize] is the final aggregation. It is a pure function over a
// finished [runner.TestOutcome]:
//
//	summary, err := metrics.Summarize(outcome)
//	if errors.Is(err, metrics.ErrNoOutcomes) {
//		// nothing was sent
//	}
//
// The percentile table uses [Percentile] at the points in
// [ReportedPercentiles]. Latencies are kept exact; no histogram rounding
// enters the final report.
//
// # Live collection
//
// [Collector] and [PrometheusObserver] implement [runner.Observer] and see
// outcomes as they complete. The Collector keeps an HDR histogram for cheap
// approximate percentiles while the run is still going:
//
//	collector := metrics.NewCollector()
//	collector.Start()
//	outcome := runner.RunLoadTest(ctx, runner.LoadTest{..., Observer: collector}, send)
//	stats := collector.Stats(collector.Elapsed())
//
// [Serve] exposes a PrometheusObserver's registry on /metrics.
package metrics
