package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// OutputFormat selects how the final report is written to stdout.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

type Config struct {
	TargetURL     string            `mapstructure:"target"`
	Method        string            `mapstructure:"method"`
	Headers       map[string]string `mapstructure:"headers"`
	Body          string            `mapstructure:"body"`
	BodyFile      string            `mapstructure:"body_file"`
	Total         int               `mapstructure:"total"`
	Concurrency   int               `mapstructure:"concurrency"`
	Timeout       time.Duration     `mapstructure:"timeout"`
	Output        OutputFormat      `mapstructure:"output"`
	HTMLOutput    string            `mapstructure:"html_output"`
	Dashboard     bool              `mapstructure:"dashboard"`
	Progress      bool              `mapstructure:"progress"`
	NoColor       bool              `mapstructure:"no_color"`
	LogErrors     bool              `mapstructure:"log_errors"`
	LogLevel      string            `mapstructure:"log_level"`
	LogProduction bool              `mapstructure:"log_production"`
	Thresholds    []string          `mapstructure:"thresholds"`
	MetricsAddr   string            `mapstructure:"metrics_addr"`
	Tracing       TracingConfig     `mapstructure:"tracing"`
	ConfigFile    string            `mapstructure:"-"`
}

// TracingConfig configures OTLP export of one client span per request.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // grpc or http
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   bool    `mapstructure:"propagate"`
}

// Enabled reports whether an OTLP endpoint is configured, either directly
// or through OTEL_EXPORTER_OTLP_ENDPOINT.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate reports whether traceparent headers are sent to the target.
func (t TracingConfig) ShouldPropagate() bool {
	return t.Enabled() && t.Propagate
}

// Defaults returns the configuration used before any file, env or flag is
// applied.
func Defaults() Config {
	return Config{
		Method:      "GET",
		Headers:     map[string]string{},
		Total:       1,
		Concurrency: 1,
		Timeout:     30 * time.Second,
		Output:      OutputText,
		Progress:    true,
		LogLevel:    "warn",
		Tracing: TracingConfig{
			Protocol:    "grpc",
			ServiceName: "volley",
			SampleRate:  1.0,
			Propagate:   true,
		},
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.TargetURL) == "" {
		issues = append(issues, "target is required (use --help for usage information)")
	} else if issue := validateTarget(c.TargetURL); issue != "" {
		issues = append(issues, issue)
	}

	if c.Total < 1 {
		issues = append(issues, "total must be >= 1")
	}
	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if strings.TrimSpace(c.Body) != "" && strings.TrimSpace(c.BodyFile) != "" {
		issues = append(issues, "body and bodyFile are mutually exclusive")
	}

	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		issues = append(issues, fmt.Sprintf("output must be 'text', 'json' or 'yaml', got %q", c.Output))
	}
	if c.Dashboard && (c.Output == OutputJSON || c.Output == OutputYAML) {
		issues = append(issues, fmt.Sprintf("dashboard and %s output are mutually exclusive", c.Output))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("log level must be debug, info, warn or error, got %q", c.LogLevel))
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

// Warnings lists non-fatal concerns about the configuration.
func (c Config) Warnings() []string {
	var warnings []string
	if c.Concurrency > 500 {
		warnings = append(warnings, fmt.Sprintf("high concurrency configured (%d in flight); ensure you have authorization to test the target system", c.Concurrency))
	}
	if c.Total > 1_000_000 {
		warnings = append(warnings, fmt.Sprintf("very large run configured (%d requests); every outcome is held in memory until the report", c.Total))
	}
	if c.Concurrency > c.Total && c.Total > 0 {
		warnings = append(warnings, fmt.Sprintf("concurrency %d exceeds total %d; at most %d requests will be in flight", c.Concurrency, c.Total, c.Total))
	}
	if c.Tracing.Enabled() && c.Tracing.Insecure {
		warnings = append(warnings, "OTLP export without TLS; use only with a local collector")
	}
	return warnings
}

func validateTarget(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Sprintf("target %q is not a valid URL: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Sprintf("target %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Sprintf("target %q has no host", raw)
	}
	return ""
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}
