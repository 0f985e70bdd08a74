package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheus_RecordsStateLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.RecordStateLatency("run-1", "Work", 42*time.Millisecond, "success")

	count, err := testutil.GatherAndCount(reg, "asl_state_latency_ms")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPrometheus_IncrementRetries(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.IncrementRetries("run-1", "Work", "States.TaskFailed")
	p.IncrementRetries("run-1", "Work", "States.TaskFailed")

	got := testutil.ToFloat64(p.retries.WithLabelValues("run-1", "Work", "States.TaskFailed"))
	assert.Equal(t, float64(2), got)
}

func TestPrometheus_DisableStopsRecording(t *testing.T) {
	p := NewPrometheus(prometheus.NewRegistry())
	p.Disable()

	p.UpdateInflight(5)
	assert.Equal(t, float64(0), testutil.ToFloat64(p.inflight))

	p.Enable()
	p.UpdateInflight(5)
	assert.Equal(t, float64(5), testutil.ToFloat64(p.inflight))
}
