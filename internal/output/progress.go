package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/volley/internal/metrics"
)

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	collector *metrics.Collector
	total     int
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
}

// NewProgressReporter creates a progress reporter for a run of total
// requests that updates at the given interval.
func NewProgressReporter(collector *metrics.Collector, total int, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		collector: collector,
		total:     total,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates and terminates the line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		fmt.Fprint(p.writer, p.line(), "\n")
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, p.line())
		case <-p.done:
			return
		}
	}
}

func (p *ProgressReporter) line() string {
	stats := p.collector.Stats(p.collector.Elapsed())
	done := 0.0
	if p.total > 0 {
		done = float64(stats.Total) / float64(p.total) * 100
	}
	return fmt.Sprintf("\rRequests: %d/%d (%.0f%%) | In flight: %d | RPS: %.1f | P50: %.1fms | P99: %.1fms | Errors: %d",
		stats.Total, p.total, done, stats.InFlight, stats.RequestsPerSec,
		stats.P50LatencyMs, stats.P99LatencyMs, stats.ServerErrors+stats.TransportErrors)
}
