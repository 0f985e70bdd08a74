package asl

import "context"

// runSucceedBody implements the Succeed state (§4.4.5): ends the run
// successfully with the current document as output.
func runSucceedBody(ctx context.Context, r *run, name string, state *State, params interface{}, ectx *execContext) bodyOutcome {
	return bodyOutcome{result: params, hasExplicitNext: true, explicitTerminal: true}
}

// runFailBody implements the Fail state (§4.4.5): ends the run with a named,
// catchable-only-by-a-parent-workflow failure. Error/Cause may be literal or
// resolved via ErrorPath/CausePath against the document.
func runFailBody(ctx context.Context, r *run, name string, state *State, params interface{}, ectx *execContext) bodyOutcome {
	errName, err := resolveFailField(state.Error, state.ErrorPath, params, ectx.view(), ErrNameTaskFailed)
	if err != nil {
		return bodyOutcome{err: err}
	}
	cause, err := resolveFailField(state.Cause, state.CausePath, params, ectx.view(), "")
	if err != nil {
		return bodyOutcome{err: err}
	}
	return bodyOutcome{err: &StateError{Name: errName, State: name, Cause: cause}}
}

func resolveFailField(lit *string, path *string, doc interface{}, ctx Document, fallback string) (string, *StateError) {
	if lit != nil {
		return *lit, nil
	}
	if path != nil {
		v, found, err := selectPath(doc, ctx, *path)
		if err != nil {
			return "", &StateError{Name: ErrNameParameterPathFailure, Cause: err.Error()}
		}
		if !found {
			return fallback, nil
		}
		s, _ := v.(string)
		return s, nil
	}
	return fallback, nil
}
