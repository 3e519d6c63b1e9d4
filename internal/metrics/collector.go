package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/volley/internal/runner"
)

// Collector aggregates outcomes while a run is in progress. It is a
// runner.Observer and feeds the progress line and the dashboard; the final
// report is computed from the full outcome set by Summarize.
type Collector struct {
	mu              sync.Mutex
	hist            *hdrhistogram.Histogram
	ok              int64
	serverErrors    int64
	transportErrors int64
	minLatency      time.Duration
	maxLatency      time.Duration
	sumLatency      time.Duration
	statusCodes     map[int]int
	errorsByKind    map[string]int
	inFlight        atomic.Int64
	start           time.Time
}

// Stats is a point-in-time view of a Collector. Percentiles are histogram
// estimates, accurate to three significant figures.
type Stats struct {
	Total           int64         `json:"total"`
	OK              int64         `json:"ok"`
	ServerErrors    int64         `json:"server_errors"`
	TransportErrors int64         `json:"transport_errors"`
	InFlight        int64         `json:"in_flight"`
	MinLatency      time.Duration `json:"-"`
	MaxLatency      time.Duration `json:"-"`
	MeanLatency     time.Duration `json:"-"`
	P50Latency      time.Duration `json:"-"`
	P90Latency      time.Duration `json:"-"`
	P99Latency      time.Duration `json:"-"`
	Duration        time.Duration `json:"-"`
	RequestsPerSec  float64       `json:"requests_per_sec"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64        `json:"min_latency_ms"`
	MaxLatencyMs  float64        `json:"max_latency_ms"`
	MeanLatencyMs float64        `json:"mean_latency_ms"`
	P50LatencyMs  float64        `json:"p50_latency_ms"`
	P90LatencyMs  float64        `json:"p90_latency_ms"`
	P99LatencyMs  float64        `json:"p99_latency_ms"`
	DurationMs    float64        `json:"duration_ms"`
	StatusCodes   map[int]int    `json:"status_codes,omitempty"`
	Errors        map[string]int `json:"errors,omitempty"`
}

func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:         h,
		statusCodes:  make(map[int]int),
		errorsByKind: make(map[string]int),
		start:        time.Now(),
	}
}

// Start marks the beginning of the run for elapsed and RPS figures.
func (c *Collector) Start() {
	c.mu.Lock()
	c.start = time.Now()
	c.mu.Unlock()
}

// Elapsed returns the time since Start.
func (c *Collector) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start)
}

func (c *Collector) UnitStarted() { c.inFlight.Add(1) }

func (c *Collector) UnitFinished(out runner.RequestOutcome) {
	c.inFlight.Add(-1)
	c.RecordOutcome(out)
}

// RecordOutcome adds one finished request to the running totals.
func (c *Collector) RecordOutcome(out runner.RequestOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	latency := out.Duration
	if latency > 0 {
		us := latency.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}
	c.sumLatency += latency

	total := c.ok + c.transportErrors
	if total == 0 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}

	if out.TransportFailed() {
		c.transportErrors++
		c.errorsByKind[string(out.Err.Kind)]++
		return
	}
	c.ok++
	if out.ServerError() {
		c.serverErrors++
	}
	c.statusCodes[out.Status]++
}

// Stats computes current aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.ok + c.transportErrors
	stats := Stats{
		Total:           total,
		OK:              c.ok,
		ServerErrors:    c.serverErrors,
		TransportErrors: c.transportErrors,
		InFlight:        c.inFlight.Load(),
		MinLatency:      c.minLatency,
		MaxLatency:      c.maxLatency,
	}

	if total > 0 {
		stats.MeanLatency = time.Duration(int64(c.sumLatency) / total)
	}

	if c.hist.TotalCount() > 0 {
		stats.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P90Latency = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		stats.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	stats.MinLatencyMs = toMillis(stats.MinLatency)
	stats.MaxLatencyMs = toMillis(stats.MaxLatency)
	stats.MeanLatencyMs = toMillis(stats.MeanLatency)
	stats.P50LatencyMs = toMillis(stats.P50Latency)
	stats.P90LatencyMs = toMillis(stats.P90Latency)
	stats.P99LatencyMs = toMillis(stats.P99Latency)

	stats.Duration = elapsed
	stats.DurationMs = toMillis(elapsed)
	if elapsed > 0 && total > 0 {
		stats.RequestsPerSec = float64(total) / elapsed.Seconds()
	}

	if len(c.statusCodes) > 0 {
		stats.StatusCodes = make(map[int]int, len(c.statusCodes))
		for k, v := range c.statusCodes {
			stats.StatusCodes[k] = v
		}
	}
	if len(c.errorsByKind) > 0 {
		stats.Errors = make(map[string]int, len(c.errorsByKind))
		for k, v := range c.errorsByKind {
			stats.Errors[k] = v
		}
	}

	return stats
}
