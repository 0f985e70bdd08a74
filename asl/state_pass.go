package asl

import "context"

// runPassBody implements the Pass state (§4.4.2): if Result is set it is the
// state's result (after template evaluation so Result may itself carry ".$"
// path/intrinsic entries); otherwise the input passes through untouched as
// the result. Either way the shared envelope merges the result via
// ResultPath, so Result replaces the whole document only when ResultPath is
// absent.
func runPassBody(ctx context.Context, r *run, name string, state *State, params interface{}, ectx *execContext) bodyOutcome {
	if state.Result == nil {
		return bodyOutcome{result: params, hasResult: true}
	}
	evaluated, err := evaluateTemplateObject(state.Result, params, ectx.view())
	if err != nil {
		if se, ok := err.(*StateError); ok {
			se.State = name
			return bodyOutcome{err: se}
		}
		return bodyOutcome{err: &StateError{Name: ErrNameParameterPathFailure, State: name, Cause: err.Error()}}
	}
	return bodyOutcome{result: evaluated, hasResult: true}
}
