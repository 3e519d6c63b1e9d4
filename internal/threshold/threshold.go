package threshold

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/torosent/volley/internal/metrics"
)

// Metric names accepted on the command line.
const (
	MetricDuration    = "http_req_duration"
	MetricFailed      = "http_req_failed"
	MetricServerError = "http_req_server_error"
	MetricRequests    = "http_requests"
)

var pattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9_]+)\s*([<>=!]+)\s*([0-9.]+)$`)

var aggregates = map[string][]string{
	MetricDuration:    {"p50", "p66", "p75", "p80", "p90", "p95", "p99", "p100", "avg", "mean", "in_flight_avg", "wall_avg", "min", "max"},
	MetricFailed:      {"count", "rate"},
	MetricServerError: {"count", "rate"},
	MetricRequests:    {"count", "rate"},
}

var operators = []string{"<", "<=", ">", ">=", "=="}

// Threshold represents a performance assertion that can pass or fail.
type Threshold struct {
	Metric    string  // e.g., "http_req_duration", "http_req_failed"
	Aggregate string  // e.g., "p95", "avg", "rate"
	Operator  string  // e.g., "<", "<=", ">", ">=", "=="
	Value     float64 // The threshold value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold `json:"-" yaml:"-"`
	Raw       string    `json:"threshold" yaml:"threshold"`
	Actual    float64   `json:"actual" yaml:"actual"`
	Pass      bool      `json:"pass" yaml:"pass"`
	Message   string    `json:"message" yaml:"message"`
}

// Evaluator evaluates thresholds against a run summary.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the summary, in the order given.
func (e *Evaluator) Evaluate(summary metrics.Summary) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, summary))
	}
	return results
}

// AllPassed reports whether every result passed. An empty slice passes.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, summary metrics.Summary) Result {
	actual, err := metricValue(t, summary)
	if err != nil {
		return Result{
			Threshold: t,
			Raw:       t.Raw,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	return Result{
		Threshold: t,
		Raw:       t.Raw,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "http_req_duration:p95 < 500"         (latency percentile in ms)
// - "http_req_duration:avg < 200"         (mean request latency in ms)
// - "http_req_duration:wall_avg < 50"     (run wall time divided by requests, in ms)
// - "http_req_failed:rate < 0.01"         (transport error rate as decimal)
// - "http_req_server_error:count == 0"    (5xx responses)
// - "http_requests:rate > 100"            (requests per second)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := pattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:aggregate operator value, e.g., 'http_req_duration:p95 < 500')", s)
	}
	metric, aggregate, operator, valueStr := matches[1], matches[2], matches[3], matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	allowed, ok := aggregates[metric]
	if !ok {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: %s, %s, %s, %s)",
			metric, MetricDuration, MetricFailed, MetricServerError, MetricRequests)
	}
	if !slices.Contains(allowed, aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)",
			aggregate, metric, strings.Join(allowed, ", "))
	}
	if !slices.Contains(operators, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: %s)", operator, strings.Join(operators, ", "))
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses every threshold string and reports all invalid ones
// together.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs error
	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("threshold[%d]: %w", i, err))
			continue
		}
		result = append(result, t)
	}
	if errs != nil {
		return nil, errs
	}
	return result, nil
}

func metricValue(t Threshold, s metrics.Summary) (float64, error) {
	switch t.Metric {
	case MetricDuration:
		return latencyValue(t.Aggregate, s)
	case MetricFailed:
		return countOrRate(t.Aggregate, s.TransportErrors, s.Total), nil
	case MetricServerError:
		return countOrRate(t.Aggregate, s.ServerErrors, s.Total), nil
	case MetricRequests:
		if t.Aggregate == "rate" {
			return s.RequestsPerSec, nil
		}
		return float64(s.Total), nil
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func latencyValue(aggregate string, s metrics.Summary) (float64, error) {
	switch aggregate {
	case "avg", "mean", "in_flight_avg":
		return s.AvgTimeInFlightMs, nil
	case "wall_avg":
		return s.AvgTimeTakenMs, nil
	case "min":
		return s.MinLatencyMs, nil
	case "max":
		return s.MaxLatencyMs, nil
	}

	percent, err := strconv.ParseFloat(strings.TrimPrefix(aggregate, "p"), 64)
	if err != nil {
		return 0, fmt.Errorf("unsupported aggregate %q for %s", aggregate, MetricDuration)
	}
	latency, ok := s.PercentileLatency(percent)
	if !ok {
		return 0, fmt.Errorf("percentile %s not reported", aggregate)
	}
	return float64(latency) / 1e6, nil
}

func countOrRate(aggregate string, count, total int) float64 {
	if aggregate == "count" {
		return float64(count)
	}
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
