package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP-level collectors and the registry they live on.
type Metrics struct {
	registry       *prometheus.Registry
	requestsTotal  *prometheus.CounterVec
	requestDur     *prometheus.HistogramVec
	activeRequests prometheus.Gauge
}

// NewMetrics creates a registry with the standard process and Go
// collectors plus the HTTP instrumentation.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "incidentd",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, endpoint, and status code.",
		}, []string{"method", "endpoint", "status"}),
		requestDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "incidentd",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds by method and endpoint.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 35.0},
		}, []string{"method", "endpoint"}),
		activeRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "incidentd",
			Name:      "http_active_requests",
			Help:      "Number of currently active HTTP requests.",
		}),
	}
	reg.MustRegister(m.requestsTotal, m.requestDur, m.activeRequests)
	return m
}

// Registerer exposes the registry for pipeline collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware returns an Echo middleware that records HTTP metrics.
// Routes are fixed, so the route template is a safe label.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			m.activeRequests.Inc()

			err := next(c)

			endpoint := c.Path()
			if endpoint == "" {
				endpoint = "/"
			}
			method := c.Request().Method

			m.activeRequests.Dec()
			m.requestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(c.Response().Status)).Inc()
			m.requestDur.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
