// Package server wires the HTTP surface: the chi router, the middleware
// stack, and the operational endpoints around the gateway API.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/filegate/filegate/config"
	"github.com/filegate/filegate/gateway"
	"github.com/filegate/filegate/metrics"
	"github.com/filegate/filegate/server/handlers"
	"github.com/filegate/filegate/server/middleware"
)

// NewRouter creates and configures the HTTP router
func NewRouter(gw *gateway.Gateway, serverConfig *config.Server, logger *zap.Logger) chi.Router {
	// Initialize metrics
	metrics.RegisterMetrics()

	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(serverConfig.RequestTimeout))
	r.Use(middleware.SecurityHeaders())

	// Custom logging and metrics middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)

			metrics.HTTPRequestsTotal.WithLabelValues(
				r.Method,
				r.URL.Path,
				http.StatusText(ww.Status()),
			).Inc()

			metrics.HTTPRequestDuration.WithLabelValues(
				r.Method,
				r.URL.Path,
			).Observe(duration.Seconds())

			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("operation", r.URL.Query().Get("q")),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", duration),
				zap.String("remote_addr", r.RemoteAddr))
		})
	})

	// Health check endpoint (no auth required)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			logger.Error("Failed to write health check response", zap.Error(err))
		}
	})

	// Metrics endpoint (no auth required)
	r.Handle("/metrics", promhttp.Handler())

	// The gateway API: one endpoint, operation selected by the q parameter.
	// Authorization happens inside the gateway, not here, so every response
	// (including failures) carries the configured CORS headers.
	r.Route("/api", func(r chi.Router) {
		if serverConfig.RateLimitRPS > 0 {
			r.Use(middleware.RateLimit(serverConfig.RateLimitRPS, serverConfig.RateLimitBurst, logger))
		}

		api := handlers.API(gw, logger)
		r.Get("/", api)
		r.Post("/", api)
		r.Options("/", api)

		r.Get("/transfer", handlers.Transfer(gw, logger))
	})

	logger.Info("HTTP router configured successfully")

	return r
}
