package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "cnet"

// Metrics holds the Prometheus collectors of the catalog server.
type Metrics struct {
	requests *prometheus.CounterVec   // method, route, status_code
	latency  *prometheus.HistogramVec // method, route
	inFlight prometheus.Gauge

	catalogOps     *prometheus.CounterVec   // operation, status
	catalogLatency *prometheus.HistogramVec // operation
	networks       prometheus.Gauge
	ingested       *prometheus.CounterVec // kind: points, measures, diagnostics

	auth   *prometheus.CounterVec // status
	health *prometheus.CounterVec // status
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"method", "route", "status_code"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests being served.",
		}),

		catalogOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "catalog",
			Name:      "operations_total",
			Help:      "Catalog operations by outcome.",
		}, []string{"operation", "status"}),
		catalogLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "catalog",
			Name:      "operation_duration_seconds",
			Help:      "Catalog operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"operation"}),
		networks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "catalog",
			Name:      "networks",
			Help:      "Networks held in the catalog.",
		}),
		ingested: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "catalog",
			Name:      "ingested_total",
			Help:      "Points, measures and diagnostics of ingested networks.",
		}, []string{"kind"}),

		auth: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "auth_requests_total",
			Help:      "API key checks by outcome.",
		}, []string{"status"}),
		health: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "health_checks_total",
			Help:      "Health checks by outcome.",
		}, []string{"status"}),
	}
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// Middleware records every request under its chi route pattern, so
// /networks/abc and /networks/def share one series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// ObserveCatalog starts timing a catalog operation. Call the returned
// function with the operation's error.
func (m *Metrics) ObserveCatalog(operation string) func(error) {
	start := time.Now()
	return func(err error) {
		m.catalogOps.WithLabelValues(operation, outcome(err == nil)).Inc()
		m.catalogLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// RecordIngest counts the contents of an ingested network.
func (m *Metrics) RecordIngest(points, measures, diagnostics int) {
	m.ingested.WithLabelValues("points").Add(float64(points))
	m.ingested.WithLabelValues("measures").Add(float64(measures))
	m.ingested.WithLabelValues("diagnostics").Add(float64(diagnostics))
}

// SetNetworks sets the catalog size gauge.
func (m *Metrics) SetNetworks(n int) {
	m.networks.Set(float64(n))
}

// RecordAuth counts one API key check.
func (m *Metrics) RecordAuth(ok bool) {
	m.auth.WithLabelValues(outcome(ok)).Inc()
}

// RecordHealthCheck counts one health check.
func (m *Metrics) RecordHealthCheck(ok bool) {
	m.health.WithLabelValues(outcome(ok)).Inc()
}
