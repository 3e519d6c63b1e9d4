package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/volley/internal/config"
	"github.com/torosent/volley/internal/tracing"
)

// RequestBuilder holds the per-run request shape: headers and body. Method
// and target are supplied per request.
type RequestBuilder struct {
	method  string
	headers http.Header
	body    BodySource
}

func NewRequestBuilder(cfg *config.Config) (*RequestBuilder, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if strings.TrimSpace(cfg.TargetURL) == "" {
		return nil, errors.New("target URL is required")
	}

	method := strings.ToUpper(strings.TrimSpace(cfg.Method))
	if method == "" {
		method = http.MethodGet
	}

	body, err := NewBodySource(cfg.Body, cfg.BodyFile)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	for key, value := range cfg.Headers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" || strings.ContainsAny(trimmedKey, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		canonicalKey := http.CanonicalHeaderKey(trimmedKey)
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", canonicalKey)
		}
		headers.Set(canonicalKey, value)
	}

	return &RequestBuilder{
		method:  method,
		headers: headers,
		body:    body,
	}, nil
}

// Method is the configured HTTP method.
func (b *RequestBuilder) Method() string { return b.method }

// Build creates a request with the builder's headers and body.
func (b *RequestBuilder) Build(ctx context.Context, method, target string) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	reader, err := b.body.NewReader()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		_ = reader.Close()
		return nil, err
	}

	req.Header = b.headers.Clone()
	req.ContentLength = b.body.ContentLength()
	req.GetBody = b.body.NewReader
	return req, nil
}

func NewClient(timeout time.Duration) *http.Client {
	if timeout < 0 {
		timeout = 0
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithTracer records one client span per request.
func WithTracer(tracer trace.Tracer, propagate bool) SenderOption {
	return func(s *Sender) {
		if tracer != nil {
			s.tracer = tracer
		}
		s.propagate = propagate
	}
}

// WithSpanAttributes tags every request span, typically with the run's
// identity from tracing.RunAttributes.
func WithSpanAttributes(attrs ...attribute.KeyValue) SenderOption {
	return func(s *Sender) {
		s.attrs = append(s.attrs, attrs...)
	}
}

// WithIdleConns sizes the idle pool so a run with the given concurrency can
// keep every connection alive between requests.
func WithIdleConns(concurrency int) SenderOption {
	return func(s *Sender) {
		transport, ok := s.client.Transport.(*http.Transport)
		if !ok || concurrency <= transport.MaxIdleConnsPerHost {
			return
		}
		transport.MaxIdleConnsPerHost = concurrency
		if concurrency > transport.MaxIdleConns {
			transport.MaxIdleConns = concurrency
		}
	}
}

// Sender issues one HTTP request per call. Any status code is a response;
// only a missing response is an error.
type Sender struct {
	client    *http.Client
	builder   *RequestBuilder
	tracer    trace.Tracer
	propagate bool
	attrs     []attribute.KeyValue
}

func NewSender(client *http.Client, builder *RequestBuilder, opts ...SenderOption) *Sender {
	if client == nil {
		client = NewClient(0)
	}
	s := &Sender{
		client:  client,
		builder: builder,
		tracer:  noop.NewTracerProvider().Tracer("volley"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send performs the request and drains the response body so the connection
// can be reused. A caller timing Send measures time to the last byte.
func (s *Sender) Send(ctx context.Context, method, target string) (int, error) {
	ctx, span := tracing.StartRequestSpan(ctx, s.tracer, method, target)
	if len(s.attrs) > 0 {
		span.SetAttributes(s.attrs...)
	}

	req, err := s.builder.Build(ctx, method, target)
	if err != nil {
		tracing.EndSpan(span, err)
		return 0, err
	}
	if s.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		tracing.EndSpan(span, err)
		return 0, err
	}
	_, err = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		tracing.EndSpan(span, err, attribute.Int("http.response.status_code", resp.StatusCode))
		return 0, err
	}

	tracing.EndResponseSpan(span, resp.StatusCode)
	return resp.StatusCode, nil
}

// Method is the configured HTTP method.
func (s *Sender) Method() string { return s.builder.Method() }

// Close releases idle connections.
func (s *Sender) Close() {
	s.client.CloseIdleConnections()
}
