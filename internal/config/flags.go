package config

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "volley [flags] [URL]",
		Short:         "Send N HTTP requests with at most C in flight and report latency percentiles",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Core request flags
	flags.String("target", "", "Target URL to load test (or pass it as the first argument)")
	flags.StringP("method", "X", "GET", "HTTP method to use")
	flags.StringArrayP("header", "H", nil, "Additional request header in key=value form (repeatable)")
	flags.String("body", "", "Inline request body payload")
	flags.String("body-file", "", "Path to file containing the request body")

	// Load control flags
	flags.IntP("total", "n", 1, "Total number of requests to send")
	flags.IntP("concurrency", "c", 1, "Maximum number of requests in flight")
	flags.Duration("timeout", 30*time.Second, "Per-request timeout (0 means none)")

	// Output flags
	flags.StringP("output", "o", string(OutputText), "Report format: text, json or yaml")
	flags.Bool("json-output", false, "Shorthand for --output json")
	flags.String("html-output", "", "Also write an HTML report to the specified file path")
	flags.Bool("dashboard", false, "Show live terminal dashboard while the test runs")
	flags.Bool("progress", true, "Show a live progress line on stderr for text output")
	flags.Bool("no-color", false, "Disable ANSI colour in the text report")
	flags.StringArray("threshold", nil, "Pass/fail assertion (repeatable, e.g. 'http_req_duration:p95 < 500')")

	// Logging flags
	flags.Bool("log-errors", false, "Log failed requests to stderr")
	flags.String("log-level", "warn", "Log level: debug, info, warn or error")
	flags.Bool("log-production", false, "Emit JSON structured logs")

	// Observability flags
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address during the run (e.g. :9090)")
	flags.String("tracing-endpoint", "", "OTLP collector endpoint; enables tracing")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: grpc or http")
	flags.String("tracing-service-name", "volley", "Service name reported on spans")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of requests to trace (0.0-1.0)")
	flags.Bool("tracing-insecure", false, "Export spans without TLS")
	flags.Bool("tracing-propagate", true, "Send W3C traceparent headers to the target")

	flags.String("config", "", "Path to configuration file (JSON, YAML or TOML)")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\n%s\n\nFlags:\n", cmd.UseLine(), cmd.Short)
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
	fmt.Fprintln(out, "\nEnvironment variables named VOLLEY_<SETTING> (e.g. VOLLEY_CONCURRENCY) override the config file.")
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file and environment.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("target") {
		val, err := fs.GetString("target")
		if err != nil {
			return err
		}
		cfg.TargetURL = strings.TrimSpace(val)
	}
	if fs.Changed("method") {
		val, err := fs.GetString("method")
		if err != nil {
			return err
		}
		cfg.Method = val
	}
	if fs.Changed("body") {
		val, err := fs.GetString("body")
		if err != nil {
			return err
		}
		cfg.Body = val
		cfg.BodyFile = ""
	}
	if fs.Changed("body-file") {
		val, err := fs.GetString("body-file")
		if err != nil {
			return err
		}
		cfg.BodyFile = val
		cfg.Body = ""
	}
	if fs.Changed("total") {
		val, err := fs.GetInt("total")
		if err != nil {
			return err
		}
		cfg.Total = val
	}
	if fs.Changed("concurrency") {
		val, err := fs.GetInt("concurrency")
		if err != nil {
			return err
		}
		cfg.Concurrency = val
	}
	if fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}
	if fs.Changed("output") {
		val, err := fs.GetString("output")
		if err != nil {
			return err
		}
		cfg.Output = OutputFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("json-output") {
		val, err := fs.GetBool("json-output")
		if err != nil {
			return err
		}
		if val {
			cfg.Output = OutputJSON
		}
	}
	if fs.Changed("html-output") {
		val, err := fs.GetString("html-output")
		if err != nil {
			return err
		}
		cfg.HTMLOutput = strings.TrimSpace(val)
	}
	if err := overrideBool(fs, "dashboard", &cfg.Dashboard); err != nil {
		return err
	}
	if err := overrideBool(fs, "progress", &cfg.Progress); err != nil {
		return err
	}
	if err := overrideBool(fs, "no-color", &cfg.NoColor); err != nil {
		return err
	}
	if err := overrideBool(fs, "log-errors", &cfg.LogErrors); err != nil {
		return err
	}
	if err := overrideBool(fs, "log-production", &cfg.LogProduction); err != nil {
		return err
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringArray("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}
	if fs.Changed("metrics-addr") {
		val, err := fs.GetString("metrics-addr")
		if err != nil {
			return err
		}
		cfg.MetricsAddr = strings.TrimSpace(val)
	}

	vals, err := fs.GetStringArray("header")
	if err != nil {
		return err
	}
	if len(vals) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for _, entry := range vals {
			key, value, err := parseHeader(entry)
			if err != nil {
				return err
			}
			cfg.Headers[key] = value
		}
	}

	return applyTracingFlags(&cfg.Tracing, fs)
}

func applyTracingFlags(t *TracingConfig, fs *pflag.FlagSet) error {
	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		t.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		t.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-service-name") {
		val, err := fs.GetString("tracing-service-name")
		if err != nil {
			return err
		}
		t.ServiceName = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		t.SampleRate = val
	}
	if err := overrideBool(fs, "tracing-insecure", &t.Insecure); err != nil {
		return err
	}
	return overrideBool(fs, "tracing-propagate", &t.Propagate)
}

func overrideBool(fs *pflag.FlagSet, name string, dst *bool) error {
	if !fs.Changed(name) {
		return nil
	}
	val, err := fs.GetBool(name)
	if err != nil {
		return err
	}
	*dst = val
	return nil
}

// parseHeader splits a key=value header flag. A "key: value" form is also
// accepted.
func parseHeader(entry string) (string, string, error) {
	sep := "="
	if !strings.Contains(entry, "=") && strings.Contains(entry, ":") {
		sep = ":"
	}
	parts := strings.SplitN(entry, sep, 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("header must be in key=value format: %s", entry)
	}
	key := http.CanonicalHeaderKey(strings.TrimSpace(parts[0]))
	if key == "" {
		return "", "", fmt.Errorf("header key cannot be empty")
	}
	return key, strings.TrimSpace(parts[1]), nil
}
