package metrics

import (
	"errors"
	"slices"
	"time"

	"github.com/torosent/volley/internal/runner"
)

// ErrNoOutcomes is returned when a run produced nothing to summarize.
var ErrNoOutcomes = errors.New("metrics: no request outcomes to summarize")

// PercentileValue is one row of the latency distribution.
type PercentileValue struct {
	Percent   float64       `json:"percent" yaml:"percent"`
	Latency   time.Duration `json:"-" yaml:"-"`
	LatencyMs float64       `json:"latency_ms" yaml:"latency_ms"`
}

// Summary is the aggregated view of a finished run.
type Summary struct {
	RunID       string `json:"run_id" yaml:"run_id"`
	Total       int    `json:"total" yaml:"total"`
	Concurrency int    `json:"concurrency" yaml:"concurrency"`

	OK              int `json:"ok" yaml:"ok"`
	ServerErrors    int `json:"server_errors" yaml:"server_errors"`
	TransportErrors int `json:"transport_errors" yaml:"transport_errors"`

	TotalTime         time.Duration `json:"-" yaml:"-"`
	AvgTimeTaken      time.Duration `json:"-" yaml:"-"`
	TotalTimeInFlight time.Duration `json:"-" yaml:"-"`
	AvgTimeInFlight   time.Duration `json:"-" yaml:"-"`
	MinLatency        time.Duration `json:"-" yaml:"-"`
	MaxLatency        time.Duration `json:"-" yaml:"-"`
	RequestsPerSec    float64       `json:"requests_per_sec" yaml:"requests_per_sec"`

	Percentiles []PercentileValue `json:"percentiles" yaml:"percentiles"`

	StatusCodes map[int]int    `json:"status_codes,omitempty" yaml:"status_codes,omitempty"`
	Errors      map[string]int `json:"errors,omitempty" yaml:"errors,omitempty"`

	// JSON-friendly millisecond fields.
	TotalTimeMs         float64 `json:"total_time_ms" yaml:"total_time_ms"`
	AvgTimeTakenMs      float64 `json:"avg_time_taken_ms" yaml:"avg_time_taken_ms"`
	TotalTimeInFlightMs float64 `json:"total_time_in_flight_ms" yaml:"total_time_in_flight_ms"`
	AvgTimeInFlightMs   float64 `json:"avg_time_in_flight_ms" yaml:"avg_time_in_flight_ms"`
	MinLatencyMs        float64 `json:"min_latency_ms" yaml:"min_latency_ms"`
	MaxLatencyMs        float64 `json:"max_latency_ms" yaml:"max_latency_ms"`
}

// Summarize reduces a run to counts, timing and the percentile table. It does
// not modify the outcome, so repeated calls give identical results.
func Summarize(outcome runner.TestOutcome) (Summary, error) {
	total := len(outcome.Requests)
	if total == 0 {
		return Summary{}, ErrNoOutcomes
	}

	s := Summary{
		RunID:       outcome.RunID,
		Total:       total,
		Concurrency: outcome.Concurrency,
		TotalTime:   outcome.TotalTime,
	}

	durations := make([]time.Duration, 0, total)
	for _, req := range outcome.Requests {
		durations = append(durations, req.Duration)
		s.TotalTimeInFlight += req.Duration

		if req.TransportFailed() {
			s.TransportErrors++
			if s.Errors == nil {
				s.Errors = make(map[string]int)
			}
			s.Errors[string(req.Err.Kind)]++
			continue
		}
		s.OK++
		if req.ServerError() {
			s.ServerErrors++
		}
		if s.StatusCodes == nil {
			s.StatusCodes = make(map[int]int)
		}
		s.StatusCodes[req.Status]++
	}
	slices.Sort(durations)

	s.AvgTimeTaken = s.TotalTime / time.Duration(total)
	s.AvgTimeInFlight = s.TotalTimeInFlight / time.Duration(total)
	s.MinLatency = durations[0]
	s.MaxLatency = durations[total-1]
	if s.TotalTime > 0 {
		s.RequestsPerSec = float64(total) / s.TotalTime.Seconds()
	}

	s.Percentiles = make([]PercentileValue, 0, len(ReportedPercentiles))
	for _, p := range ReportedPercentiles {
		latency := Percentile(durations, p/100)
		s.Percentiles = append(s.Percentiles, PercentileValue{
			Percent:   p,
			Latency:   latency,
			LatencyMs: toMillis(latency),
		})
	}

	s.TotalTimeMs = toMillis(s.TotalTime)
	s.AvgTimeTakenMs = toMillis(s.AvgTimeTaken)
	s.TotalTimeInFlightMs = toMillis(s.TotalTimeInFlight)
	s.AvgTimeInFlightMs = toMillis(s.AvgTimeInFlight)
	s.MinLatencyMs = toMillis(s.MinLatency)
	s.MaxLatencyMs = toMillis(s.MaxLatency)

	return s, nil
}

// PercentileLatency looks up a reported percentile, e.g. 95 for p95.
func (s Summary) PercentileLatency(percent float64) (time.Duration, bool) {
	for _, pv := range s.Percentiles {
		if pv.Percent == percent {
			return pv.Latency, true
		}
	}
	return 0, false
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
