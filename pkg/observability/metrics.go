package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aretw0/crudgen/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crudgen"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the collectors fed by lifecycle hooks.
type Metrics struct {
	reg *prometheus.Registry

	validations *prometheus.CounterVec   // crudgen_validations_total{result,rule}
	writes      *prometheus.CounterVec   // crudgen_writes_total{op,result}
	duration    *prometheus.HistogramVec // crudgen_operation_duration_seconds{op}
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Records validated, by outcome and failed rule.",
			},
			[]string{"result", "rule"},
		),
		writes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "writes_total",
				Help:      "Store writes, by operation and outcome.",
			},
			[]string{"op", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of validate and write operations.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"op"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.validations,
		m.writes,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return m, nil
}

// Registry exposes the underlying registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Hooks returns lifecycle hooks recording every event.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnValidate: func(_ context.Context, e *domain.ValidationEvent) {
			result := ResultOK
			if e.Failed() {
				result = ResultError
			}
			m.validations.WithLabelValues(result, e.Rule).Inc()
			m.duration.WithLabelValues(string(e.Operation)).Observe(e.Duration.Seconds())
		},
		OnWrite: func(_ context.Context, e *domain.WriteEvent) {
			result := ResultOK
			if e.Failed() {
				result = ResultError
			}
			m.writes.WithLabelValues(string(e.Operation), result).Inc()
			m.duration.WithLabelValues(string(e.Operation)).Observe(e.Duration.Seconds())
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
