package trace

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dshills/asl-go/asl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_TextMode(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(&buf, false)

	l.Emit(asl.Event{Kind: asl.EventStateEnter, RunID: "r1", State: "Work", Step: 1})

	line := buf.String()
	assert.Contains(t, line, "runID=r1")
	assert.Contains(t, line, "state=Work")
	assert.Contains(t, line, "step=1")
}

func TestLog_TextMode_IncludesErrorAndAttempt(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(&buf, false)

	l.Emit(asl.Event{
		Kind:         asl.EventStateError,
		RunID:        "r1",
		State:        "Work",
		Error:        &asl.StateError{Name: "States.TaskFailed", Cause: "boom"},
		RetryAttempt: 2,
	})

	line := buf.String()
	assert.Contains(t, line, "error=States.TaskFailed")
	assert.Contains(t, line, `cause="boom"`)
	assert.Contains(t, line, "attempt=2")
}

func TestLog_JSONMode(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(&buf, true)

	l.Emit(asl.Event{Kind: asl.EventCheckpoint, RunID: "r2", State: "Save", Step: 3})

	var decoded struct {
		Kind  string `json:"kind"`
		RunID string `json:"runID"`
		State string `json:"state"`
		Step  int    `json:"step"`
	}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &decoded))
	assert.Equal(t, "checkpoint", decoded.Kind)
	assert.Equal(t, "r2", decoded.RunID)
	assert.Equal(t, "Save", decoded.State)
	assert.Equal(t, 3, decoded.Step)
}

func TestNull_DiscardsEverything(t *testing.T) {
	var n Null
	assert.NotPanics(t, func() {
		n.Emit(asl.Event{Kind: asl.EventStateEnter})
	})
}
