package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operations records one sample per bridge invocation on a private registry.
type Operations struct {
	registry *prometheus.Registry
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewOperations() *Operations {
	reg := prometheus.NewRegistry()
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studio",
		Name:      "operations_total",
		Help:      "Bridge operations by name and outcome.",
	}, []string{"operation", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "studio",
		Name:      "operation_duration_seconds",
		Help:      "Bridge operation latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(calls, duration)

	return &Operations{registry: reg, calls: calls, duration: duration}
}

func (o *Operations) Observe(operation string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	o.calls.WithLabelValues(operation, outcome).Inc()
	o.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (o *Operations) Registry() *prometheus.Registry {
	return o.registry
}

func (o *Operations) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
}
