package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMiddleware holds the HTTP request metrics.
type PrometheusMiddleware struct {
	requestCount    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	skip            map[string]struct{}
}

// DefaultUnobservedPaths are probe and scrape endpoints left out of the HTTP metrics.
var DefaultUnobservedPaths = []string{"/metrics", "/health", "/healthz"}

// NewPrometheusMiddleware registers the HTTP metrics on reg. Requests to the
// given paths are passed through uncounted; DefaultUnobservedPaths applies
// when none are given.
func NewPrometheusMiddleware(reg prometheus.Registerer, unobserved ...string) (*PrometheusMiddleware, error) {
	if len(unobserved) == 0 {
		unobserved = DefaultUnobservedPaths
	}
	m := &PrometheusMiddleware{
		skip: make(map[string]struct{}, len(unobserved)),
		requestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed.",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Time until the handler returned. Streamed bodies are written afterwards.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	for _, p := range unobserved {
		m.skip[p] = struct{}{}
	}

	for _, c := range []prometheus.Collector{m.requestCount, m.requestDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Handler returns the fiber middleware handler.
func (m *PrometheusMiddleware) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := m.skip[c.Path()]; ok {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		// route pattern keeps filenames out of the label set
		path := c.Route().Path
		if path == "" || path == "/" && c.Path() != "/" {
			path = "unmatched"
		}

		status := c.Response().StatusCode()
		if err != nil {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			} else {
				// Errors that are not a fiber.Error are resolved by the ErrorHandler;
				// place this middleware outside Logger to see their final status.
				status = fiber.StatusInternalServerError
			}
		}

		m.requestCount.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())

		return err
	}
}
