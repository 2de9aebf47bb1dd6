package middleware

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relaykit/relay"
)

// MetricsConfig configures the Prometheus metrics middleware.
type MetricsConfig struct {
	// Registerer receives the collectors (default:
	// prometheus.DefaultRegisterer).
	Registerer prometheus.Registerer

	// Namespace prefixes the metric names (default: "relay").
	Namespace string
}

// Metrics creates middleware recording a request counter and a latency
// histogram, labeled by method and response status, on the default
// Prometheus registry.
func Metrics() relay.Middleware {
	return MetricsWithConfig(MetricsConfig{})
}

// MetricsWithConfig creates metrics middleware with custom configuration.
// Collector registration happens once here, at construction time.
func MetricsWithConfig(cfg MetricsConfig) relay.Middleware {
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "relay"
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "requests_total",
		Help:      "Dispatched requests by method and response status.",
	}, []string{"method", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: cfg.Namespace,
		Name:      "request_duration_seconds",
		Help:      "Dispatch latency by method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	errors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Name:      "request_errors_total",
		Help:      "Requests that ended in an uncaught error.",
	}, []string{"method"})

	cfg.Registerer.MustRegister(requests, duration, errors)

	return relay.Wrap(func(req *relay.Request, c *relay.Context, next relay.Next) (*relay.Response, error) {
		start := time.Now()
		res, err := next()
		duration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

		if err != nil {
			errors.WithLabelValues(req.Method).Inc()
			return nil, err
		}

		status := 0
		if res != nil {
			status = res.StatusCode
		}
		requests.WithLabelValues(req.Method, strconv.Itoa(status)).Inc()
		return res, nil
	})
}
