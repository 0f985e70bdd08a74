package asl

import (
	"context"
	"time"
)

// runWaitBody implements the Wait state (§4.4.4): pause for Seconds (or
// until Timestamp), resolving the *Path variants against the document first.
// Cancellation (ctx.Done) aborts the wait and surfaces ctx.Err() as a
// States.Timeout-style failure rather than a retryable body error, since a
// cancelled run should not retry.
func runWaitBody(ctx context.Context, r *run, name string, state *State, params interface{}, ectx *execContext) bodyOutcome {
	d, err := waitDuration(state, params, ectx.view())
	if err != nil {
		return bodyOutcome{err: err}
	}
	if d > 0 {
		if sleepErr := r.sleep(ctx, d); sleepErr != nil {
			return bodyOutcome{err: &StateError{Name: ErrNameTimeout, State: name, Cause: sleepErr.Error()}}
		}
	}
	return bodyOutcome{result: params, hasResult: true}
}

func waitDuration(state *State, doc interface{}, ctx Document) (time.Duration, *StateError) {
	switch {
	case state.Seconds != nil:
		return time.Duration(*state.Seconds * float64(time.Second)), nil
	case state.Timestamp != nil:
		return untilTimestamp(*state.Timestamp)
	case state.SecondsPath != nil:
		v, found, err := selectPath(doc, ctx, *state.SecondsPath)
		if err != nil || !found {
			return 0, &StateError{Name: ErrNameParameterPathFailure, Cause: "SecondsPath did not resolve"}
		}
		n, ok := asNumber(v)
		if !ok {
			return 0, &StateError{Name: ErrNameParameterPathFailure, Cause: "SecondsPath did not resolve to a number"}
		}
		return time.Duration(n * float64(time.Second)), nil
	case state.TimestampPath != nil:
		v, found, err := selectPath(doc, ctx, *state.TimestampPath)
		if err != nil || !found {
			return 0, &StateError{Name: ErrNameParameterPathFailure, Cause: "TimestampPath did not resolve"}
		}
		s, ok := v.(string)
		if !ok {
			return 0, &StateError{Name: ErrNameParameterPathFailure, Cause: "TimestampPath did not resolve to a string"}
		}
		return untilTimestamp(s)
	default:
		return 0, nil
	}
}

func untilTimestamp(s string) (time.Duration, *StateError) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, &StateError{Name: ErrNameParameterPathFailure, Cause: "invalid RFC3339 timestamp: " + s}
	}
	d := time.Until(t)
	if d < 0 {
		return 0, nil
	}
	return d, nil
}
