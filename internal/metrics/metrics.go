// Package metrics records store operation outcomes.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives one observation per store mutation.
type Recorder interface {
	Observe(ctx context.Context, store, operation string, success bool, duration time.Duration)
	PersistFailed(store string)
}

// Noop discards every observation.
type Noop struct{}

func (Noop) Observe(context.Context, string, string, bool, time.Duration) {}
func (Noop) PersistFailed(string)                                         {}

// Prometheus publishes counters and a duration histogram on a registry.
type Prometheus struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
	persist  *prometheus.CounterVec
}

// NewPrometheus registers the store collectors on reg under namespace
// (default "storefront").
func NewPrometheus(reg prometheus.Registerer, namespace string) (*Prometheus, error) {
	if namespace == "" {
		namespace = "storefront"
	}
	p := &Prometheus{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Store mutations by store, operation and result.",
		}, []string{"store", "operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Store mutation latency including persistence.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"store", "operation"}),
		persist: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_persist_failures_total",
			Help:      "Failed writes to the key/value backend.",
		}, []string{"store"}),
	}
	for _, c := range []prometheus.Collector{p.ops, p.duration, p.persist} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Observe records a store operation outcome.
func (p *Prometheus) Observe(_ context.Context, store, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	result := "error"
	if success {
		result = "success"
	}
	p.ops.WithLabelValues(store, operation, result).Inc()
	p.duration.WithLabelValues(store, operation).Observe(duration.Seconds())
}

func (p *Prometheus) PersistFailed(store string) {
	p.persist.WithLabelValues(store).Inc()
}
