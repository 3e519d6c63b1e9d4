package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/torosent/volley/internal/metrics"
	"github.com/torosent/volley/internal/runner"
)

// syncBuffer guards a buffer written by the reporter goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestProgressReporterStopWithoutStart(t *testing.T) {
	collector := metrics.NewCollector()
	var buf syncBuffer
	reporter := NewProgressReporter(collector, 10, 100*time.Millisecond, &buf)

	reporter.Stop()
	if buf.String() != "" {
		t.Fatalf("expected no output from a reporter that never started, got %q", buf.String())
	}
}

func TestProgressReporterFormatting(t *testing.T) {
	collector := metrics.NewCollector()
	collector.Start()

	collector.UnitStarted()
	collector.UnitStarted()
	collector.UnitFinished(runner.RequestOutcome{Status: 200, Duration: 50 * time.Millisecond})
	collector.UnitFinished(runner.RequestOutcome{
		Duration: time.Millisecond,
		Err:      &runner.TransportError{Kind: runner.KindTimeout},
	})
	collector.UnitStarted()

	var buf syncBuffer
	reporter := NewProgressReporter(collector, 4, 20*time.Millisecond, &buf)
	reporter.Start()
	reporter.Start()
	time.Sleep(60 * time.Millisecond)
	reporter.Stop()
	reporter.Stop()

	output := buf.String()
	for _, want := range []string{"\rRequests: 2/4 (50%)", "In flight: 1", "Errors: 1"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in progress output %q", want, output)
		}
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("expected Stop to end the line, got %q", output)
	}
}
