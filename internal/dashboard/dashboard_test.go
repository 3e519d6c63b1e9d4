package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/torosent/volley/internal/metrics"
	"github.com/torosent/volley/internal/runner"
)

func TestPercentOf(t *testing.T) {
	tests := []struct {
		part, whole int64
		want        int
	}{
		{0, 10, 0},
		{5, 10, 50},
		{10, 10, 100},
		{12, 10, 100},
		{3, 0, 0},
	}
	for _, tt := range tests {
		if got := percentOf(tt.part, tt.whole); got != tt.want {
			t.Errorf("percentOf(%d, %d) = %d, want %d", tt.part, tt.whole, got, tt.want)
		}
	}
}

func TestFormatStatusRows(t *testing.T) {
	if rows := formatStatusRows(nil); len(rows) != 1 || rows[0] != "Awaiting responses" {
		t.Fatalf("unexpected empty rows %v", rows)
	}

	rows := formatStatusRows(map[int]int{200: 90, 503: 7, 404: 3})
	want := []string{"[200](fg:green) 90", "[503](fg:red) 7", "[404](fg:yellow) 3"}
	if strings.Join(rows, ",") != strings.Join(want, ",") {
		t.Fatalf("formatStatusRows() = %v, want %v", rows, want)
	}

	many := make(map[int]int)
	for code := 200; code < 220; code++ {
		many[code] = 1
	}
	if rows := formatStatusRows(many); len(rows) != maxListRows {
		t.Fatalf("expected rows capped at %d, got %d", maxListRows, len(rows))
	}
}

func TestFormatErrorRows(t *testing.T) {
	if rows := formatErrorRows(nil); !strings.Contains(rows[0], "No transport errors") {
		t.Fatalf("unexpected empty rows %v", rows)
	}

	rows := formatErrorRows(map[string]int{"timeout": 2, "connection_refused": 5})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !strings.HasPrefix(rows[0], "[Connection refused](fg:red) 5") {
		t.Errorf("expected most frequent error first, got %q", rows[0])
	}
}

func TestUpdateFromCollector(t *testing.T) {
	collector := metrics.NewCollector()
	collector.Start()
	for i := 0; i < 4; i++ {
		collector.UnitStarted()
	}
	collector.UnitFinished(runner.RequestOutcome{Status: 200, Duration: 20 * time.Millisecond})
	collector.UnitFinished(runner.RequestOutcome{Status: 503, Duration: 40 * time.Millisecond})

	d := newDashboard(collector, TestConfig{
		TargetURL:   "http://localhost:3000/echo",
		Total:       8,
		Concurrency: 4,
	}, nil)
	d.update(collector.Stats(time.Second))

	if d.progressGauge.Percent != 25 || d.progressGauge.Label != "2 / 8" {
		t.Errorf("progress gauge = %d%% %q, want 25%% \"2 / 8\"", d.progressGauge.Percent, d.progressGauge.Label)
	}
	if d.inFlightGauge.Percent != 50 || d.inFlightGauge.Label != "2 / 4" {
		t.Errorf("in-flight gauge = %d%% %q, want 50%% \"2 / 4\"", d.inFlightGauge.Percent, d.inFlightGauge.Label)
	}
	if len(d.latencyHistory) != 1 {
		t.Errorf("expected one sparkline sample, got %d", len(d.latencyHistory))
	}
	for _, want := range []string{"http://localhost:3000/echo", "OK: 2", "Server errors: 1", "Transport errors: 0"} {
		if !strings.Contains(d.summaryPara.Text, want) {
			t.Errorf("summary %q missing %q", d.summaryPara.Text, want)
		}
	}
	if len(d.statusList.Rows) != 2 {
		t.Errorf("expected 2 status rows, got %v", d.statusList.Rows)
	}
}

func TestUpdateCapsLatencyHistory(t *testing.T) {
	d := newDashboard(metrics.NewCollector(), TestConfig{}, nil)
	stats := metrics.Stats{Total: 1, P50LatencyMs: 3}
	for i := 0; i < historySize+20; i++ {
		d.update(stats)
	}
	if len(d.latencyHistory) != historySize {
		t.Fatalf("expected history capped at %d, got %d", historySize, len(d.latencyHistory))
	}
}

func TestFormatTestParams(t *testing.T) {
	tests := []struct {
		name     string
		config   TestConfig
		contains []string
		excludes []string
	}{
		{
			name:     "basic config",
			config:   TestConfig{Total: 1000, Concurrency: 10, Timeout: 30 * time.Second},
			contains: []string{"Requests: 1000", "Concurrency: 10", "Timeout: 30s"},
			excludes: []string{"Method:", "Config:"},
		},
		{
			name:     "POST method shown",
			config:   TestConfig{Method: "POST", Concurrency: 3},
			contains: []string{"Method: POST"},
		},
		{
			name:     "GET method not shown",
			config:   TestConfig{Method: "GET", Concurrency: 3},
			excludes: []string{"Method:"},
		},
		{
			name:     "config file and run id",
			config:   TestConfig{ConfigFile: "volley.yaml", RunID: "01ABC"},
			contains: []string{"Config: volley.yaml", "Run: 01ABC"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Dashboard{testConfig: tt.config}
			got := d.formatTestParams()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("formatTestParams() = %q, missing %q", got, want)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("formatTestParams() = %q, should not contain %q", got, bad)
				}
			}
		})
	}
}
