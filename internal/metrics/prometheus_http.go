package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"plantcam/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// FieldBind is the log key for the metrics listen address.
const FieldBind = "metrics_bind"

// HTTPHandler returns an http.Handler that serves Prometheus metrics for the provided registry.
func HTTPHandler(reg *prom.Registry) http.Handler {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Serve exposes /metrics on bind until ctx is cancelled. It returns the
// listener address once the socket is open; serving continues in the
// background.
func Serve(ctx context.Context, bind string, reg *prom.Registry, logger *slog.Logger) (string, error) {
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return "", fmt.Errorf("metrics listen %s: %w", bind, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", HTTPHandler(reg))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) && logger != nil {
			logging.WarnWithContext(logger, "metrics server stopped", "metrics_server_failed",
				logging.Error(err),
				logging.String(FieldBind, bind),
				logging.String(logging.FieldImpact, "metrics endpoint unavailable until restart"),
			)
		}
	}()
	return listener.Addr().String(), nil
}
