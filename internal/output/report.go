package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/torosent/volley/internal/metrics"
	"github.com/torosent/volley/internal/threshold"
)

// Report is the machine-readable form of a run: the summary fields at the
// top level plus threshold results when any were configured.
type Report struct {
	metrics.Summary `yaml:",inline"`
	Thresholds      []threshold.Result `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// TextOptions controls the human-readable report.
type TextOptions struct {
	NoColor    bool
	Thresholds []threshold.Result
}

type palette struct {
	bad, good, header *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		bad:    color.New(color.FgRed, color.Bold),
		good:   color.New(color.FgGreen),
		header: color.New(color.Bold),
	}
	if noColor {
		p.bad.DisableColor()
		p.good.DisableColor()
		p.header.DisableColor()
	}
	return p
}

// countOf prints n highlighted when it is non-zero.
func (p palette) countOf(n int) string {
	if n == 0 {
		return strconv.Itoa(n)
	}
	return p.bad.Sprint(n)
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, s metrics.Summary, opts TextOptions) {
	p := newPalette(opts.NoColor)

	fmt.Fprintln(w, p.header.Sprint("\n--- Load Test Results ---"))
	if s.RunID != "" {
		fmt.Fprintf(w, "Run ID:               %s\n", s.RunID)
	}
	fmt.Fprintf(w, "Total Requests:       %d\n", s.Total)
	fmt.Fprintf(w, "Concurrency:          %d\n", s.Concurrency)
	fmt.Fprintf(w, "OK:                   %d\n", s.OK)
	fmt.Fprintf(w, "Server Errors:        %s\n", p.countOf(s.ServerErrors))
	fmt.Fprintf(w, "Transport Errors:     %s\n", p.countOf(s.TransportErrors))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total Time Taken:     %s\n", round(s.TotalTime))
	fmt.Fprintf(w, "Avg Time Taken:       %s\n", round(s.AvgTimeTaken))
	fmt.Fprintf(w, "Total Time In Flight: %s\n", round(s.TotalTimeInFlight))
	fmt.Fprintf(w, "Avg Time In Flight:   %s\n", round(s.AvgTimeInFlight))
	fmt.Fprintf(w, "Requests/sec:         %.2f\n", s.RequestsPerSec)

	fmt.Fprintln(w, p.header.Sprint("\nLatency:"))
	fmt.Fprintf(w, "  Min:  %s\n", round(s.MinLatency))
	fmt.Fprintf(w, "  Max:  %s\n", round(s.MaxLatency))

	fmt.Fprintln(w, p.header.Sprint("\nLatency Distribution:"))
	for _, pv := range s.Percentiles {
		fmt.Fprintf(w, "  %3g%%  %s\n", pv.Percent, round(pv.Latency))
	}

	if rows := metrics.FlattenStatusCodes(s.StatusCodes); len(rows) > 0 {
		fmt.Fprintln(w, p.header.Sprint("\nStatus Codes:"))
		for _, row := range rows {
			line := fmt.Sprintf("  [%d] %d responses", row.Code, row.Count)
			if row.Code >= 500 {
				line = p.bad.Sprint(line)
			}
			fmt.Fprintln(w, line)
		}
	}

	if rows := metrics.FlattenErrors(s.Errors); len(rows) > 0 {
		fmt.Fprintln(w, p.header.Sprint("\nTransport Errors:"))
		for _, row := range rows {
			fmt.Fprintf(w, "  %s: %s\n", row.Label, p.bad.Sprint(row.Count))
		}
	}

	if len(opts.Thresholds) > 0 {
		passed := 0
		for _, r := range opts.Thresholds {
			if r.Pass {
				passed++
			}
		}
		fmt.Fprintln(w, p.header.Sprintf("\nThresholds (%d/%d passed):", passed, len(opts.Thresholds)))
		for _, r := range opts.Thresholds {
			c := p.good
			if !r.Pass {
				c = p.bad
			}
			fmt.Fprintf(w, "  %s\n", c.Sprint(r.Message))
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, s metrics.Summary, results []threshold.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Report{Summary: s, Thresholds: results})
}

// PrintYAMLReport outputs the same document as PrintJSONReport in YAML.
func PrintYAMLReport(w io.Writer, s metrics.Summary, results []threshold.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Report{Summary: s, Thresholds: results}); err != nil {
		return err
	}
	return enc.Close()
}

// round trims durations to a readable precision.
func round(d time.Duration) time.Duration {
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond)
	case d >= time.Millisecond:
		return d.Round(10 * time.Microsecond)
	default:
		return d
	}
}
