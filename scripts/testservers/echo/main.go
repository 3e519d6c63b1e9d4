// Command echo serves the routes of internal/testserver, by default on
// localhost:3000 so "volley http://localhost:3000/echo" works out of the box.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/torosent/volley/internal/logging"
	"github.com/torosent/volley/internal/testserver"
)

func main() {
	addr := pflag.String("addr", "localhost:3000", "Listen address")
	logLevel := pflag.String("log-level", "info", "Log level: debug, info, warn, error")
	pflag.Parse()

	logger, err := logging.New(false, *logLevel)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           testserver.New(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("test server listening", zap.String("addr", *addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("test server failed", zap.Error(err))
	}
}
