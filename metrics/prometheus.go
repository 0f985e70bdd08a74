// Package metrics provides an asl.MetricsSink backed by Prometheus,
// generalized from the teacher's PrometheusMetrics (graph/metrics.go) by
// swapping its node-id labels for ASL state names and adding a budget-alert
// counter for the Budget Accountant (§4.6).
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus implements asl.MetricsSink. All metrics are namespaced "asl_".
type Prometheus struct {
	inflight    prometheus.Gauge
	stateLatency *prometheus.HistogramVec
	retries     *prometheus.CounterVec
	budgetAlerts *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheus registers and returns a Prometheus-backed MetricsSink. A nil
// registry uses prometheus.DefaultRegisterer.
func NewPrometheus(registry prometheus.Registerer) *Prometheus {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Prometheus{
		enabled: true,
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "asl",
			Name:      "inflight_states",
			Help:      "Current number of states executing concurrently (Map/Parallel branches)",
		}),
		stateLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "asl",
			Name:      "state_latency_ms",
			Help:      "State execution duration in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 60000},
		}, []string{"run_id", "state", "status"}),
		retries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asl",
			Name:      "retries_total",
			Help:      "Cumulative retry attempts per state and error name",
		}, []string{"run_id", "state", "reason"}),
		budgetAlerts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "asl",
			Name:      "budget_alerts_total",
			Help:      "Budget Accountant alerts by severity level",
		}, []string{"run_id", "level"}),
	}
}

func (p *Prometheus) RecordStateLatency(runID, state string, d time.Duration, status string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.enabled {
		return
	}
	p.stateLatency.WithLabelValues(runID, state, status).Observe(float64(d.Milliseconds()))
}

func (p *Prometheus) IncrementRetries(runID, state, reason string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.enabled {
		return
	}
	p.retries.WithLabelValues(runID, state, reason).Inc()
}

func (p *Prometheus) UpdateInflight(n int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.enabled {
		return
	}
	p.inflight.Set(float64(n))
}

func (p *Prometheus) RecordBudgetAlert(runID, level string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.enabled {
		return
	}
	p.budgetAlerts.WithLabelValues(runID, level).Inc()
}

// Disable stops metric recording without unregistering collectors.
func (p *Prometheus) Disable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = false
}

// Enable resumes metric recording after Disable.
func (p *Prometheus) Enable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = true
}
