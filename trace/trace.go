// Package trace provides asl.Emitter implementations, grounded on the
// teacher's graph/emit package: a structured-log emitter for local runs, a
// null emitter for when observability overhead is unwanted, and an
// OpenTelemetry span emitter for production tracing.
package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dshills/asl-go/asl"
)

// Log implements asl.Emitter by writing structured output to a writer.
// Text mode is human-readable key=value; JSON mode writes one JSON object
// per line.
type Log struct {
	w        io.Writer
	jsonMode bool
}

// NewLog creates a Log emitter. A nil writer defaults to os.Stdout.
func NewLog(w io.Writer, jsonMode bool) *Log {
	if w == nil {
		w = os.Stdout
	}
	return &Log{w: w, jsonMode: jsonMode}
}

func (l *Log) Emit(ev asl.Event) {
	if l.jsonMode {
		l.emitJSON(ev)
		return
	}
	l.emitText(ev)
}

func (l *Log) emitJSON(ev asl.Event) {
	data, err := json.Marshal(struct {
		Kind  asl.EventKind          `json:"kind"`
		RunID string                 `json:"runID"`
		State string                 `json:"state"`
		Step  int                    `json:"step"`
		Error *asl.StateError        `json:"error,omitempty"`
		Meta  map[string]interface{} `json:"meta,omitempty"`
	}{ev.Kind, ev.RunID, ev.State, ev.Step, ev.Error, ev.Meta})
	if err != nil {
		fmt.Fprintf(l.w, "{\"error\":\"emit marshal failed: %v\"}\n", err)
		return
	}
	l.w.Write(append(data, '\n'))
}

func (l *Log) emitText(ev asl.Event) {
	fmt.Fprintf(l.w, "[%s] runID=%s step=%d state=%s", ev.Kind, ev.RunID, ev.Step, ev.State)
	if ev.Error != nil {
		fmt.Fprintf(l.w, " error=%s cause=%q", ev.Error.Name, ev.Error.Cause)
	}
	if ev.RetryAttempt > 0 {
		fmt.Fprintf(l.w, " attempt=%d", ev.RetryAttempt)
	}
	if len(ev.Meta) > 0 {
		if metaJSON, err := json.Marshal(ev.Meta); err == nil {
			fmt.Fprintf(l.w, " meta=%s", metaJSON)
		}
	}
	fmt.Fprint(l.w, "\n")
}

// Null discards every event. Use it when emission overhead is unwanted but
// an Engine still requires a non-nil asl.Emitter.
type Null struct{}

func (Null) Emit(asl.Event) {}
