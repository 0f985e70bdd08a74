package asl

import (
	"context"
	"strconv"
)

// runParallelBody implements the Parallel state (§4.4.7): every Branch
// workflow receives the same input document and runs concurrently; their
// outputs are collected into an array in Branches declaration order. Unlike
// Map, Parallel has no tolerated-failure knob — any branch failure fails the
// whole state (§9). MaxConcurrency defaults to running every branch at once
// but is honored when declared, same as Map.
func runParallelBody(ctx context.Context, r *run, name string, state *State, params interface{}, ectx *execContext) bodyOutcome {
	tolerateNone := func(total, failed int) bool { return failed == 0 }

	limit := state.MaxConcurrency
	if limit <= 0 {
		limit = len(state.Branches)
	}

	out, stateErr := runConcurrent(ctx, len(state.Branches), limit, tolerateNone, func(cctx context.Context, i int) (interface{}, *StateError) {
		branch := state.Branches[i]
		child := r.childRun("parallel:" + name + ":" + strconv.Itoa(i))
		res, runErr := child.drive(cctx, branch, branch.StartAt, deepCopyValue(params))
		if runErr != nil {
			return nil, &StateError{Name: ErrNameTaskFailed, Cause: runErr.Error()}
		}
		if !res.Succeeded {
			return nil, res.Error
		}
		return res.Output, nil
	})
	if stateErr != nil {
		stateErr.State = name
		return bodyOutcome{err: stateErr}
	}
	return bodyOutcome{result: out, hasResult: true}
}
