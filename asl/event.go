package asl

import "time"

// EventKind names one of the six observability event kinds emitted during a
// run (§3, §6).
type EventKind string

const (
	EventStateEnter EventKind = "state_enter"
	EventStateExit  EventKind = "state_exit"
	EventStateError EventKind = "state_error"
	EventRetry      EventKind = "retry"
	EventBudget     EventKind = "budget"
	EventCheckpoint EventKind = "checkpoint"
)

// Event is one observability record. Emitter implementations (the trace
// package's Log and OTel emitters, ...) turn these into logs, spans,
// or metric updates.
type Event struct {
	Kind      EventKind
	RunID     string
	State     string
	Step      int
	Time      time.Time
	Document  interface{}
	Error     *StateError
	RetryAttempt int
	Meta      map[string]interface{}
}

// Emitter receives Events. A nil Emitter is valid; the run simply emits
// nothing.
type Emitter interface {
	Emit(Event)
}

// MetricsSink receives counters/histograms the run produces, mirroring the
// teacher's PrometheusMetrics surface generalized to state-name labels
// instead of node-id labels.
type MetricsSink interface {
	RecordStateLatency(runID, state string, d time.Duration, status string)
	IncrementRetries(runID, state, reason string)
	UpdateInflight(n int)
	RecordBudgetAlert(runID, level string)
}
