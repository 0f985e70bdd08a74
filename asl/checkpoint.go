package asl

import (
	"context"
	"time"
)

// Checkpoint is a durable snapshot of a paused or completed run (C10, §3,
// §4.10): enough to resume execution at NextState with Document as input,
// without replaying anything before it.
type Checkpoint struct {
	ID        string
	RunID     string
	NextState string
	Document  interface{}
	Cost      float64
	Tokens    int
	Label     string
	Timestamp time.Time
}

// Store persists checkpoints, generalizing the teacher's Store[S] interface
// (graph/store/store.go) from a per-step state ledger to the ASL run's
// pause/resume unit: a Checkpoint state produces exactly one Store write,
// and Resume produces exactly one Store read.
type Store interface {
	SaveCheckpoint(ctx context.Context, cp Checkpoint) error
	LoadCheckpoint(ctx context.Context, id string) (Checkpoint, error)
}

// runCheckpointBody implements the Checkpoint state (§4.4.10): persist the
// current document under Label, then continue to Next; the run does not
// stop here, and Resume can later restart it from Next. A nil Store makes
// Checkpoint a no-op pass-through, since not every deployment needs durable
// pause/resume.
func runCheckpointBody(ctx context.Context, r *run, name string, state *State, params interface{}, ectx *execContext) bodyOutcome {
	if r.engine.store != nil {
		cp := Checkpoint{
			ID:        r.id + ":" + name,
			RunID:     r.id,
			NextState: state.Next,
			Document:  params,
			Cost:      r.acct.Cost(),
			Tokens:    r.acct.Tokens(),
			Label:     state.Label,
			Timestamp: time.Now(),
		}
		if err := r.engine.store.SaveCheckpoint(ctx, cp); err != nil {
			return bodyOutcome{err: &StateError{Name: ErrNameTaskFailed, State: name, Cause: "checkpoint save failed: " + err.Error()}}
		}
		if r.engine.emitter != nil {
			r.engine.emitter.Emit(Event{Kind: EventCheckpoint, RunID: r.id, State: name, Time: time.Now(), Document: params, Meta: map[string]interface{}{"label": state.Label}})
		}
	}
	return bodyOutcome{result: params, hasResult: true}
}
