// Package metrics holds the server's Prometheus collectors on a private
// registry and the echo middleware that feeds the HTTP ones.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the set of collectors exposed at /metrics.
type Metrics struct {
	reg *prometheus.Registry

	requests    *prometheus.CounterVec   // gdp_http_requests_total
	duration    *prometheus.HistogramVec // gdp_http_request_duration_seconds
	queryRows   *prometheus.HistogramVec // gdp_query_rows
	datasetRows prometheus.Gauge         // gdp_dataset_rows
	reloads     *prometheus.CounterVec   // gdp_dataset_reloads_total
}

// New registers every collector on a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gdp_http_requests_total",
				Help: "HTTP requests served, partitioned by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gdp_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"method", "route"},
		),
		queryRows: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gdp_query_rows",
				Help:    "Rows returned per query, partitioned by query kind.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"kind"},
		),
		datasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gdp_dataset_rows",
			Help: "Rows in the long form of the loaded dataset.",
		}),
		reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gdp_dataset_reloads_total",
				Help: "Dataset loads, partitioned by outcome.",
			},
			[]string{"status"},
		),
	}
	for name, c := range map[string]prometheus.Collector{
		"requests":     m.requests,
		"duration":     m.duration,
		"query rows":   m.queryRows,
		"dataset rows": m.datasetRows,
		"reloads":      m.reloads,
	} {
		if err := m.reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register %s: %w", name, err)
		}
	}
	return m, nil
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveQuery records the size of one query result.
func (m *Metrics) ObserveQuery(kind string, rows int) {
	m.queryRows.WithLabelValues(kind).Observe(float64(rows))
}

// SetDatasetRows records the size of the dataset now being served.
func (m *Metrics) SetDatasetRows(n int) {
	m.datasetRows.Set(float64(n))
}

// Reload counts one dataset load attempt.
func (m *Metrics) Reload(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.reloads.WithLabelValues(status).Inc()
}

// Middleware counts and times every request under its route pattern.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			method := c.Request().Method
			m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
