package runner

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// failureLogger logs failed requests. Output is throttled so a failing
// target cannot flood stderr: the first burst is logged in full, after that
// at most one line per interval carries a count of what was skipped.
type failureLogger struct {
	inner      Observer
	logger     *zap.Logger
	sometimes  *rate.Sometimes
	suppressed atomic.Int64
}

// WithFailureLogging wraps an observer so transport errors and 5xx responses
// are logged.
func WithFailureLogging(inner Observer, logger *zap.Logger) Observer {
	if logger == nil {
		return inner
	}
	if inner == nil {
		inner = nopObserver{}
	}
	return &failureLogger{
		inner:     inner,
		logger:    logger,
		sometimes: &rate.Sometimes{First: 10, Interval: time.Second},
	}
}

func (l *failureLogger) UnitStarted() { l.inner.UnitStarted() }

func (l *failureLogger) UnitFinished(out RequestOutcome) {
	l.inner.UnitFinished(out)
	if !out.TransportFailed() && !out.ServerError() {
		return
	}

	logged := false
	l.sometimes.Do(func() {
		logged = true
		fields := []zap.Field{
			zap.Duration("latency", out.Duration),
			zap.Int64("suppressed", l.suppressed.Swap(0)),
		}
		if out.TransportFailed() {
			fields = append(fields, zap.String("kind", string(out.Err.Kind)), zap.Error(out.Err.Err))
			l.logger.Warn("request failed", fields...)
			return
		}
		fields = append(fields, zap.Int("status", out.Status))
		l.logger.Warn("server error response", fields...)
	})
	if !logged {
		l.suppressed.Add(1)
	}
}
