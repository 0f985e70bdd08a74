package asl

import "context"

// runChoiceBody implements the Choice state (§4.4.3): the first matching
// entry in Choices wins; Default is used if none match; no match and no
// Default is States.ValidationError (a Choice without a satisfiable path was
// a validation bug, caught here at runtime for dynamic conditions that
// Validate cannot statically rule out). Choice has no ResultSelector/
// ResultPath semantics — the input document flows through unchanged to
// whichever Next state is selected.
func runChoiceBody(ctx context.Context, r *run, name string, state *State, params interface{}, ectx *execContext) bodyOutcome {
	for _, choice := range state.Choices {
		matched, err := evalChoice(choice, params, ectx.view())
		if err != nil {
			if se, ok := err.(*StateError); ok {
				se.State = name
				return bodyOutcome{err: se}
			}
			return bodyOutcome{err: &StateError{Name: ErrNameIntrinsicFailure, State: name, Cause: err.Error()}}
		}
		if matched {
			next, _ := choice["Next"].(string)
			return bodyOutcome{result: params, hasExplicitNext: true, explicitNext: next}
		}
	}
	if state.Default != "" {
		return bodyOutcome{result: params, hasExplicitNext: true, explicitNext: state.Default}
	}
	return bodyOutcome{err: &StateError{Name: ErrNameValidationError, State: name, Cause: "no Choices entry matched and no Default is set"}}
}
