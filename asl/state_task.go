package asl

import (
	"context"
	"time"
)

// runTaskBody implements the Task state (§4.4.1): look up the named Agent,
// invoke it with the evaluated Parameters, and charge any _cost/_tokens the
// agent reports to the run's Accountant. A TimeoutSeconds bound is enforced
// with a derived context, matching the teacher's DefaultNodeTimeout pattern.
func runTaskBody(ctx context.Context, r *run, name string, state *State, params interface{}, ectx *execContext) bodyOutcome {
	agent, lookupErr := r.engine.registry.Lookup(state.Agent)
	if lookupErr != nil {
		se := lookupErr.(*StateError)
		se.State = name
		return bodyOutcome{err: se}
	}

	input, ok := asDocument(params)
	if !ok {
		return bodyOutcome{err: &StateError{Name: ErrNameParameterPathFailure, State: name, Cause: "Task Parameters must evaluate to an object"}}
	}
	input = applyBudgetFallback(r.acct, input)

	callCtx := ctx
	var cancel context.CancelFunc
	if state.TimeoutSeconds != nil {
		callCtx, cancel = context.WithTimeout(ctx, time.Duration(*state.TimeoutSeconds*float64(time.Second)))
		defer cancel()
	}

	start := time.Now()
	out, err := agent.Execute(callCtx, input)
	latency := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
	}
	if r.engine.metrics != nil {
		r.engine.metrics.RecordStateLatency(r.id, name, latency, status)
	}

	if err != nil {
		if callCtx.Err() != nil {
			return bodyOutcome{err: &StateError{Name: ErrNameTimeout, State: name, Cause: "Task exceeded TimeoutSeconds", Wraps: err}}
		}
		if ae, ok := AsAgentError(err); ok {
			return bodyOutcome{err: &StateError{Name: ae.Name, State: name, Cause: ae.Cause, Wraps: err}}
		}
		return bodyOutcome{err: &StateError{Name: ErrNameTaskFailed, State: name, Cause: err.Error(), Wraps: err}}
	}

	switch r.acct.chargeFromResult(name, out) {
	case outcomeFail:
		return bodyOutcome{err: &StateError{Name: ErrNameBudgetExceeded, State: name, Cause: "budget exceeded"}}
	case outcomePauseAndNotify:
		if r.engine.notifier != nil {
			r.engine.notifier.OnAlert("budget", "budget exceeded at state "+name+": paused")
		}
	}

	return bodyOutcome{result: out, hasResult: true}
}
