package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/torosent/volley/internal/runner"
)

// Request classes used as the "class" label of volley_requests_total.
const (
	ClassOK             = "ok"
	ClassServerError    = "server_error"
	ClassTransportError = "transport_error"
)

// PrometheusObserver exports live run metrics. Each instance owns its
// registry so parallel runs and tests do not collide.
type PrometheusObserver struct {
	registry *prometheus.Registry
	inFlight prometheus.Gauge
	requests *prometheus.CounterVec
	latency  prometheus.Histogram
	limit    prometheus.Gauge
}

func NewPrometheusObserver(runID string, concurrency int) *PrometheusObserver {
	labels := prometheus.Labels{"run_id": runID}
	p := &PrometheusObserver{
		registry: prometheus.NewRegistry(),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "volley_requests_in_flight",
			Help:        "Requests currently awaiting a response.",
			ConstLabels: labels,
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "volley_requests_total",
			Help:        "Completed requests by outcome class.",
			ConstLabels: labels,
		}, []string{"class"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "volley_request_duration_seconds",
			Help:        "Round-trip latency of completed requests.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		limit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "volley_concurrency_limit",
			Help:        "Maximum number of requests allowed in flight.",
			ConstLabels: labels,
		}),
	}
	p.registry.MustRegister(p.inFlight, p.requests, p.latency, p.limit)
	p.limit.Set(float64(concurrency))
	return p
}

// Registry exposes the underlying registry.
func (p *PrometheusObserver) Registry() *prometheus.Registry { return p.registry }

func (p *PrometheusObserver) UnitStarted() { p.inFlight.Inc() }

func (p *PrometheusObserver) UnitFinished(out runner.RequestOutcome) {
	p.inFlight.Dec()
	p.latency.Observe(out.Duration.Seconds())
	switch {
	case out.TransportFailed():
		p.requests.WithLabelValues(ClassTransportError).Inc()
	case out.ServerError():
		p.requests.WithLabelValues(ClassServerError).Inc()
	default:
		p.requests.WithLabelValues(ClassOK).Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (p *PrometheusObserver) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// MetricsServer serves /metrics for the duration of a run.
type MetricsServer struct {
	srv      *http.Server
	listener net.Listener
}

// Serve starts listening on addr and serves the observer's metrics in the
// background. Use an addr with port 0 to pick a free port.
func Serve(addr string, p *PrometheusObserver) (*MetricsServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	router := mux.NewRouter()
	router.Path("/metrics").Methods(http.MethodGet).Handler(p.Handler())

	s := &MetricsServer{
		srv: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: ln,
	}
	go func() {
		_ = s.srv.Serve(ln)
	}()
	return s, nil
}

// Addr is the address the server is bound to.
func (s *MetricsServer) Addr() string { return s.listener.Addr().String() }

// Shutdown stops the server, waiting for in-progress scrapes.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	return nil
}
