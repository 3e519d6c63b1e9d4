package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/torosent/volley/internal/config"
	"github.com/torosent/volley/internal/dashboard"
	"github.com/torosent/volley/internal/httpclient"
	"github.com/torosent/volley/internal/logging"
	"github.com/torosent/volley/internal/metrics"
	"github.com/torosent/volley/internal/output"
	"github.com/torosent/volley/internal/runner"
	"github.com/torosent/volley/internal/threshold"
	"github.com/torosent/volley/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

var errThresholdsFailed = errors.New("one or more thresholds failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	cfg, err := config.NewLoader().Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return fmt.Errorf("invalid thresholds: %w", err)
	}

	logger, err := logging.New(cfg.LogProduction, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	runID := ulid.Make().String()
	logger = logger.With(zap.String("run_id", runID))
	ctx = logging.WithLogger(ctx, logger)
	for _, warning := range cfg.Warnings() {
		logging.Warn(ctx, warning)
	}

	provider, err := tracing.Init(ctx, cfg.Tracing, runID)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		multierr.AppendInto(&err, provider.Shutdown(shutdownCtx))
	}()

	sender, err := newSender(cfg, provider, runID)
	if err != nil {
		return err
	}
	defer sender.Close()

	collector := metrics.NewCollector()
	observers := runner.Observers{collector}

	if cfg.MetricsAddr != "" {
		prom := metrics.NewPrometheusObserver(runID, cfg.Concurrency)
		srv, serveErr := metrics.Serve(cfg.MetricsAddr, prom)
		if serveErr != nil {
			return fmt.Errorf("metrics server: %w", serveErr)
		}
		logging.Info(ctx, "serving prometheus metrics", zap.String("addr", "http://"+srv.Addr()+"/metrics"))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			multierr.AppendInto(&err, srv.Shutdown(shutdownCtx))
		}()
		observers = append(observers, prom)
	}

	var observer runner.Observer = observers
	if cfg.LogErrors {
		observer = runner.WithFailureLogging(observer, logger)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopLive, err := startLiveView(cfg, collector, runID, cancel, stderr)
	if err != nil {
		return err
	}

	logging.Debug(ctx, "starting run",
		zap.String("target", cfg.TargetURL),
		zap.Int("total", cfg.Total),
		zap.Int("concurrency", cfg.Concurrency))

	collector.Start()
	outcome := runner.RunLoadTest(runCtx, runner.LoadTest{
		URL:         cfg.TargetURL,
		Method:      sender.Method(),
		Total:       cfg.Total,
		Concurrency: cfg.Concurrency,
		RunID:       runID,
		Observer:    observer,
	}, sender.Send)
	stopLive()

	if runCtx.Err() != nil {
		logging.Warn(ctx, "run interrupted, reporting partial results")
	}

	summary, err := metrics.Summarize(outcome)
	if err != nil {
		return err
	}
	results := threshold.NewEvaluator(thresholds).Evaluate(summary)

	if err := writeReport(stdout, cfg, summary, results); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if cfg.HTMLOutput != "" {
		if err := writeHTMLReport(cfg, summary, results); err != nil {
			return fmt.Errorf("write html report: %w", err)
		}
		logging.Info(ctx, "wrote html report", zap.String("path", cfg.HTMLOutput))
	}

	if !threshold.AllPassed(results) {
		return errThresholdsFailed
	}
	return nil
}

func newSender(cfg *config.Config, provider *tracing.Provider, runID string) (*httpclient.Sender, error) {
	builder, err := httpclient.NewRequestBuilder(cfg)
	if err != nil {
		return nil, err
	}
	opts := []httpclient.SenderOption{httpclient.WithIdleConns(cfg.Concurrency)}
	if provider.Enabled() {
		opts = append(opts,
			httpclient.WithTracer(provider.Tracer(), provider.ShouldPropagate()),
			httpclient.WithSpanAttributes(tracing.RunAttributes(runID, cfg.Total, cfg.Concurrency)...),
		)
	}
	return httpclient.NewSender(httpclient.NewClient(cfg.Timeout), builder, opts...), nil
}

// startLiveView starts the dashboard or the progress line and returns the
// function that stops it.
func startLiveView(cfg *config.Config, collector *metrics.Collector, runID string, cancel func(), stderr io.Writer) (func(), error) {
	switch {
	case cfg.Dashboard:
		dash, err := dashboard.New(collector, dashboard.TestConfig{
			TargetURL:   cfg.TargetURL,
			Method:      cfg.Method,
			Total:       cfg.Total,
			Concurrency: cfg.Concurrency,
			Timeout:     cfg.Timeout,
			ConfigFile:  cfg.ConfigFile,
			RunID:       runID,
		}, cancel)
		if err != nil {
			return nil, err
		}
		dash.Start()
		return dash.Stop, nil
	case cfg.Progress && cfg.Output == config.OutputText:
		progress := output.NewProgressReporter(collector, cfg.Total, progressInterval, stderr)
		progress.Start()
		return progress.Stop, nil
	default:
		return func() {}, nil
	}
}

func writeReport(w io.Writer, cfg *config.Config, summary metrics.Summary, results []threshold.Result) error {
	switch cfg.Output {
	case config.OutputJSON:
		return output.PrintJSONReport(w, summary, results)
	case config.OutputYAML:
		return output.PrintYAMLReport(w, summary, results)
	default:
		output.PrintReport(w, summary, output.TextOptions{NoColor: cfg.NoColor, Thresholds: results})
		return nil
	}
}

func writeHTMLReport(cfg *config.Config, summary metrics.Summary, results []threshold.Result) (err error) {
	f, err := os.Create(cfg.HTMLOutput)
	if err != nil {
		return err
	}
	defer func() { multierr.AppendInto(&err, f.Close()) }()

	return output.GenerateHTMLReport(f, summary, results, output.ReportMetadata{
		TargetURL: cfg.TargetURL,
		Method:    cfg.Method,
	})
}
