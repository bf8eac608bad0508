// Package api serves the control network catalog over HTTP.
//
// Every route under /api/v1 requires the X-API-Key header. /metrics and the
// /swagger/ documentation are open.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// NewRouter builds the HTTP routes for server. /metrics exposes gatherer.
func NewRouter(server *Server, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(server.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// API documentation (unprotected)
	r.Get("/swagger/*", server.handleSwagger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(server.metrics.Middleware)
		r.Use(apiKeyMiddleware(server.config.APIKey, server.metrics.RecordAuth))

		r.Get("/health", server.handleHealth)

		// Networks
		r.Get("/networks", server.handleListNetworks)
		r.Post("/networks", server.handleIngestNetwork)
		r.Get("/networks/{key}", server.handleGetNetwork)
		r.Delete("/networks/{key}", server.handleDeleteNetwork)

		// Points
		r.Get("/networks/{key}/points", server.handleListPoints)
		r.Get("/networks/{key}/points/{pointID}", server.handleGetPoint)
	})

	return r
}

// StartServer serves cat until ctx is cancelled, then shuts down gracefully.
func StartServer(ctx context.Context, cat Catalog, config ServerConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.APIKey == "" {
		return errors.New("api key is required")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	server := NewServer(cat, config, NewMetrics(reg), logger)

	addr := net.JoinHostPort(config.Bind, strconv.Itoa(config.Port))
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(server, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start background metrics updater
	go server.startMetricsUpdater(ctx, 30*time.Second)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting REST API server", zap.String("addr", addr))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	logger.Info("shutting down REST API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
