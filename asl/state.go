package asl

import (
	"context"
	"time"
)

// stepResult is what runState hands back to the Workflow Engine's driver
// loop: either a document to carry into nextState, a terminal output, or an
// uncaught failure.
type stepResult struct {
	output   interface{}
	next     string
	terminal bool
	failed   bool
	failErr  *StateError
}

// bodyOutcome is what a state-type's body function returns to the shared
// envelope/retry wrapper.
type bodyOutcome struct {
	result    interface{}
	hasResult bool
	// choice/wait/succeed/fail set next/terminal directly, bypassing the
	// ordinary ResultPath merge (§4.4.3's "Choice has no ResultPath
	// semantics").
	explicitNext     string
	hasExplicitNext  bool
	explicitTerminal bool
	err              *StateError
}

type stateBodyFunc func(ctx context.Context, r *run, name string, state *State, params interface{}, ectx *execContext) bodyOutcome

var stateBodies map[StateType]stateBodyFunc

func init() {
	stateBodies = map[StateType]stateBodyFunc{
		StateTypeTask:       runTaskBody,
		StateTypePass:       runPassBody,
		StateTypeChoice:     runChoiceBody,
		StateTypeWait:       runWaitBody,
		StateTypeSucceed:    runSucceedBody,
		StateTypeFail:       runFailBody,
		StateTypeMap:        runMapBody,
		StateTypeParallel:   runParallelBody,
		StateTypeApproval:   runApprovalBody,
		StateTypeDebate:     runDebateBody,
		StateTypeCheckpoint: runCheckpointBody,
	}
}

// runState implements the shared envelope of §4.4 around one state's body,
// plus the retry/catch wrapper of §4.5. doc is the document flowing in from
// the previous state (or the workflow input for StartAt).
func (r *run) runState(ctx context.Context, name string, state *State, doc interface{}) (stepResult, error) {
	ectx := r.ectx.forState(name)
	r.ectx = ectx
	r.emitStateEnter(name, doc)

	stateInput, err := applyInputPath(doc, state.InputPath, ectx.view())
	if err != nil {
		r.emitStateError(name, err, 0)
		return stepResult{failed: true, failErr: err}, nil
	}

	body, ok := stateBodies[state.Type]
	if !ok {
		serr := &StateError{Name: ErrNameValidationError, State: name, Cause: "unknown state type: " + string(state.Type)}
		r.emitStateError(name, serr, 0)
		return stepResult{failed: true, failErr: serr}, nil
	}

	var outcome bodyOutcome
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stepResult{}, ctxErr
		}
		params, perr := evaluateParameters(state, stateInput, ectx.view())
		if perr != nil {
			outcome = bodyOutcome{err: perr}
		} else {
			outcome = body(ctx, r, name, state, params, ectx)
		}
		if outcome.err == nil {
			break
		}
		rule, found := matchRetryRule(state.Retry, outcome.err.Name)
		if !found || ectx.retryCount >= rule.MaxAttempts {
			break
		}
		r.emitStateError(name, outcome.err, ectx.retryCount)
		r.metricsRetry(name, outcome.err.Name)
		wait := computeRetryWait(rule, ectx.retryCount, r.rng)
		if err := r.sleep(ctx, wait); err != nil {
			return stepResult{}, err
		}
		ectx.retryCount++
	}

	if outcome.err != nil {
		return r.handleUncaught(name, state, stateInput, outcome.err)
	}

	if outcome.hasExplicitNext {
		out, perr := applyOutputPath(outcome.result, state.OutputPath, ectx.view())
		if perr != nil {
			r.emitStateError(name, perr, ectx.retryCount)
			return r.handleUncaught(name, state, stateInput, perr)
		}
		r.emitStateExit(name, out, ectx.retryCount)
		return stepResult{output: out, next: outcome.explicitNext, terminal: outcome.explicitTerminal}, nil
	}

	postMerge, merr := mergeResult(state, stateInput, outcome.result, outcome.hasResult, ectx.view())
	if merr != nil {
		return r.handleUncaught(name, state, stateInput, merr)
	}
	out, operr := applyOutputPath(postMerge, state.OutputPath, ectx.view())
	if operr != nil {
		return r.handleUncaught(name, state, stateInput, operr)
	}
	r.emitStateExit(name, out, ectx.retryCount)

	if state.End || name == "" {
		return stepResult{output: out, terminal: true}, nil
	}
	return stepResult{output: out, next: state.Next}, nil
}

func (r *run) handleUncaught(name string, state *State, stateInput interface{}, serr *StateError) (stepResult, error) {
	r.emitStateError(name, serr, 0)
	catchRule, ok := matchCatchRule(state.Catch, serr.Name)
	if !ok {
		return stepResult{failed: true, failErr: serr}, nil
	}
	errRecord := Document{"Error": serr.Name, "Cause": serr.Cause}
	merged := stateInput
	if catchRule.ResultPath != nil {
		m, err := mergeAtPath(stateInput, *catchRule.ResultPath, errRecord)
		if err != nil {
			return stepResult{failed: true, failErr: err.(*StateError)}, nil
		}
		merged = m
	}
	out, operr := applyOutputPath(merged, state.OutputPath, r.ectx.view())
	if operr != nil {
		return stepResult{failed: true, failErr: operr}, nil
	}
	return stepResult{output: out, next: catchRule.Next}, nil
}

// applyInputPath implements §4.1's inputPathFilter: a nil path → whole
// document, an empty-string path → empty object, otherwise select(). A JSON
// null InputPath decodes to a nil *string, the same as an absent one, so it
// selects the whole document rather than the empty object.
func applyInputPath(doc interface{}, inputPath *string, ctxView Document) (interface{}, *StateError) {
	if inputPath == nil {
		return doc, nil
	}
	if *inputPath == "" {
		return Document{}, nil
	}
	v, found, err := selectPath(doc, ctxView, *inputPath)
	if err != nil {
		return nil, &StateError{Name: ErrNameParameterPathFailure, Cause: err.Error()}
	}
	if !found {
		return Document{}, nil
	}
	return v, nil
}

// applyOutputPath implements §4.1's outputPathFilter, the same rule as
// inputPathFilter applied post-merge.
func applyOutputPath(doc interface{}, outputPath *string, ctxView Document) (interface{}, *StateError) {
	return applyInputPath(doc, outputPath, ctxView)
}

func evaluateParameters(state *State, stateInput interface{}, ctxView Document) (interface{}, *StateError) {
	if state.Parameters == nil {
		return stateInput, nil
	}
	v, err := evaluateTemplateObject(state.Parameters, stateInput, ctxView)
	if err != nil {
		if se, ok := err.(*StateError); ok {
			return nil, se
		}
		return nil, &StateError{Name: ErrNameParameterPathFailure, Cause: err.Error()}
	}
	return v, nil
}

// mergeResult implements §4.4 step 4: ResultSelector then
// merge(stateInput, ResultPath, result).
func mergeResult(state *State, stateInput interface{}, result interface{}, hasResult bool, ctxView Document) (interface{}, *StateError) {
	if !hasResult {
		return stateInput, nil
	}
	selected := result
	if state.ResultSelector != nil {
		v, err := evaluateTemplateObject(state.ResultSelector, result, ctxView)
		if err != nil {
			if se, ok := err.(*StateError); ok {
				return nil, se
			}
			return nil, &StateError{Name: ErrNameParameterPathFailure, Cause: err.Error()}
		}
		selected = v
	}
	if state.ResultPath == nil {
		return selected, nil
	}
	// A JSON "null" ResultPath is indistinguishable from an absent one once
	// decoded into *string, so an explicit ResultPath of "null" literal
	// string is treated as the documented null case (document unchanged).
	if *state.ResultPath == "null" {
		return stateInput, nil
	}
	merged, err := mergeAtPath(stateInput, *state.ResultPath, selected)
	if err != nil {
		if se, ok := err.(*StateError); ok {
			return nil, se
		}
		return nil, &StateError{Name: ErrNameResultPathMismatch, Cause: err.Error()}
	}
	return merged, nil
}

func (r *run) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
