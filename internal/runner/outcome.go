package runner

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"time"
)

// RequestOutcome is the terminal result of one dispatched request.
// Exactly one of Status and Err is meaningful: Err is nil when the server
// answered (with any status), and Status is zero when it did not.
type RequestOutcome struct {
	Status   int
	Err      *TransportError
	Duration time.Duration
}

// OK reports whether a response was received, regardless of its status.
func (o RequestOutcome) OK() bool { return o.Err == nil }

// ServerError reports whether the server answered with a 5xx status.
func (o RequestOutcome) ServerError() bool {
	return o.Err == nil && o.Status >= 500 && o.Status <= 599
}

// TransportFailed reports whether no response was received at all.
func (o RequestOutcome) TransportFailed() bool { return o.Err != nil }

// TestOutcome is everything a finished run produced.
type TestOutcome struct {
	RunID       string
	Requests    []RequestOutcome // completion order
	TotalTime   time.Duration
	Concurrency int
}

// TransportErrorKind buckets transport failures for reporting.
type TransportErrorKind string

const (
	KindTimeout           TransportErrorKind = "timeout"
	KindDNS               TransportErrorKind = "dns"
	KindConnectionRefused TransportErrorKind = "connection_refused"
	KindConnectionReset   TransportErrorKind = "connection_reset"
	KindTLS               TransportErrorKind = "tls"
	KindCanceled          TransportErrorKind = "canceled"
	KindProtocol          TransportErrorKind = "protocol"
	KindOther             TransportErrorKind = "other"
)

// TransportError is a failure that prevented an HTTP response from arriving.
type TransportError struct {
	Kind TransportErrorKind
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ClassifyTransportError wraps err in a TransportError with its Kind set.
// A nil err yields nil.
func ClassifyTransportError(err error) *TransportError {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}
	return &TransportError{Kind: classify(err), Err: err}
}

func classify(err error) TransportErrorKind {
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return KindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return KindTimeout
		}
		return KindDNS
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnectionRefused
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return KindConnectionReset
	}

	var (
		recordErr  tls.RecordHeaderError
		certErr    *tls.CertificateVerificationError
		unknownCA  x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
	)
	if errors.As(err, &recordErr) || errors.As(err, &certErr) || errors.As(err, &unknownCA) ||
		errors.As(err, &hostErr) || errors.As(err, &invalidErr) {
		return KindTLS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:"):
		return KindTLS
	case strings.Contains(msg, "malformed http") || strings.Contains(msg, "unsupported protocol scheme") ||
		strings.Contains(msg, "server gave http response") || strings.Contains(msg, "eof"):
		return KindProtocol
	}
	return KindOther
}
