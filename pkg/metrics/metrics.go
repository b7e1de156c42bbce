// Package metrics exposes Prometheus instrumentation for NOESIS sessions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "noesis"

// Metrics holds the collectors for one registry. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// branchOps counts branch manager operations.
	// Labels: op (fork, switch, merge, archive, restore, delete, travel)
	branchOps *prometheus.CounterVec

	// checkpoints counts identity checkpoints.
	// Labels: kind (manual, auto, milestone)
	checkpoints *prometheus.CounterVec

	turns          prometheus.Counter
	activeSessions prometheus.Gauge

	// turnDrift observes the overall drift of each recorded stance change.
	turnDrift prometheus.Histogram

	storageErrors *prometheus.CounterVec
}

// New creates a Metrics bound to a fresh registry that also carries the
// Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		branchOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "branch",
			Name:      "operations_total",
			Help:      "Total branch operations by kind",
		}, []string{"op"}),
		checkpoints: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "identity",
			Name:      "checkpoints_total",
			Help:      "Total identity checkpoints created",
		}, []string{"kind"}),
		turns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "turns_total",
			Help:      "Total conversation turns recorded",
		}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Number of sessions currently registered",
		}),
		turnDrift: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stance",
			Name:      "turn_drift",
			Help:      "Overall drift between consecutive stances",
			Buckets:   []float64{0, 5, 10, 20, 30, 45, 60, 90, 150},
		}),
		storageErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "errors_total",
			Help:      "Total storage failures by operation",
		}, []string{"op"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// BranchOp records one branch operation.
func (m *Metrics) BranchOp(op string) {
	if m == nil {
		return
	}
	m.branchOps.WithLabelValues(op).Inc()
}

// Checkpoint records a checkpoint of the given kind.
func (m *Metrics) Checkpoint(kind string) {
	if m == nil {
		return
	}
	m.checkpoints.WithLabelValues(kind).Inc()
}

// Turn records a turn and the drift it caused.
func (m *Metrics) Turn(drift float64) {
	if m == nil {
		return
	}
	m.turns.Inc()
	m.turnDrift.Observe(drift)
}

// SessionOpened increments the active session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// StorageError records a failed storage operation.
func (m *Metrics) StorageError(op string) {
	if m == nil {
		return
	}
	m.storageErrors.WithLabelValues(op).Inc()
}
