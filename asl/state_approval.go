package asl

import (
	"context"
	"time"
)

// runApprovalBody implements the Approval state (§4.4.8): publish Prompt (and
// Options/Editable) to the configured ApprovalHandler and block for its
// response. Escalation.AfterSeconds, if set and the handler hasn't responded
// yet, notifies via AlertNotifier (reusing the Budget Accountant's notifier
// channel, per §9's design note) without aborting the wait. Timeout, if set,
// fails the state with States.Timeout once elapsed.
func runApprovalBody(ctx context.Context, r *run, name string, state *State, params interface{}, ectx *execContext) bodyOutcome {
	if r.engine.approvalHandler == nil {
		return bodyOutcome{err: &StateError{Name: ErrNameValidationError, State: name, Cause: "Approval state requires a configured ApprovalHandler"}}
	}

	prompt := state.Prompt
	if prompt == nil {
		if d, ok := asDocument(params); ok {
			prompt = d
		} else {
			prompt = Document{"input": params}
		}
	}

	type response struct {
		doc Document
		err error
	}
	done := make(chan response, 1)
	go func() {
		doc, err := r.engine.approvalHandler.OnApproval(ctx, name, prompt, state.Options)
		done <- response{doc: doc, err: err}
	}()

	var escalate <-chan time.Time
	if state.Escalation != nil && state.Escalation.AfterSeconds > 0 {
		t := time.NewTimer(time.Duration(state.Escalation.AfterSeconds * float64(time.Second)))
		defer t.Stop()
		escalate = t.C
	}
	var timeout <-chan time.Time
	if state.Timeout != nil {
		t := time.NewTimer(time.Duration(*state.Timeout * float64(time.Second)))
		defer t.Stop()
		timeout = t.C
	}

	for {
		select {
		case resp := <-done:
			if resp.err != nil {
				if ae, ok := AsAgentError(resp.err); ok {
					return bodyOutcome{err: &StateError{Name: ae.Name, State: name, Cause: ae.Cause}}
				}
				return bodyOutcome{err: &StateError{Name: ErrNameTaskFailed, State: name, Cause: resp.err.Error()}}
			}
			return finishApproval(name, state, params, resp.doc, ectx)
		case <-escalate:
			if r.engine.notifier != nil {
				r.engine.notifier.OnAlert("approval", "approval escalated for state "+name)
			}
			escalate = nil
		case <-timeout:
			return bodyOutcome{err: &StateError{Name: ErrNameTimeout, State: name, Cause: "Approval exceeded Timeout awaiting a response"}}
		case <-ctx.Done():
			return bodyOutcome{err: &StateError{Name: ErrNameTimeout, State: name, Cause: ctx.Err().Error()}}
		}
	}
}

// finishApproval applies the state's ordinary ResultSelector/ResultPath
// merge to the approver's response, then (if Editable is declared) merges
// the approver's edits, scoped to Editable.Fields, at Editable.ResultPath
// into that same merged document, then (if Choices are declared) routes on
// the merged document exactly like a Choice state (§4.4.8's "Approval
// behaves like an implicit Choice on the response after merging"). All of
// this bypasses the shared envelope's own merge, since the Editable merge
// and the choice routing both need to see one another's output; stateInput
// is the Task-equivalent params document rather than the pre-Parameters
// state input, which only matters for Approval states that also declare a
// Parameters template.
func finishApproval(name string, state *State, stateInput interface{}, resp Document, ectx *execContext) bodyOutcome {
	merged, merr := mergeResult(state, stateInput, resp, true, ectx.view())
	if merr != nil {
		return bodyOutcome{err: merr}
	}

	merged, everr := applyEditableScope(state, merged, resp)
	if everr != nil {
		return bodyOutcome{err: everr}
	}

	if len(state.Choices) > 0 {
		for _, choice := range state.Choices {
			matched, cherr := evalChoice(choice, merged, ectx.view())
			if cherr != nil {
				if se, ok := cherr.(*StateError); ok {
					se.State = name
					return bodyOutcome{err: se}
				}
				return bodyOutcome{err: &StateError{Name: ErrNameIntrinsicFailure, State: name, Cause: cherr.Error()}}
			}
			if matched {
				next, _ := choice["Next"].(string)
				return bodyOutcome{result: merged, hasExplicitNext: true, explicitNext: next}
			}
		}
		if state.Default != "" {
			return bodyOutcome{result: merged, hasExplicitNext: true, explicitNext: state.Default}
		}
		return bodyOutcome{err: &StateError{Name: ErrNameValidationError, State: name, Cause: "Approval Choices: no entry matched and no Default is set"}}
	}

	if state.End {
		return bodyOutcome{result: merged, hasExplicitNext: true, explicitTerminal: true}
	}
	return bodyOutcome{result: merged, hasExplicitNext: true, explicitNext: state.Next}
}

// applyEditableScope merges the approver's edits, scoped to Editable.Fields,
// at Editable.ResultPath into the post-merge document (§4.4.8). Each allowed
// field is grafted individually under ResultPath rather than replacing
// whatever already lives there wholesale, so fields the approver left alone
// (and fields outside the allowlist entirely) survive untouched. Without
// Editable, the document passes through unchanged.
func applyEditableScope(state *State, merged interface{}, resp Document) (interface{}, *StateError) {
	if state.Editable == nil || len(state.Editable.Fields) == 0 {
		return merged, nil
	}
	edits, _ := asDocument(resp["edits"])
	base := state.Editable.ResultPath
	if base == "" {
		base = "$"
	}
	out := merged
	for _, f := range state.Editable.Fields {
		v, ok := edits[f]
		if !ok {
			continue
		}
		m, err := mergeAtPath(out, fieldPathAt(base, f), v)
		if err != nil {
			if se, ok := err.(*StateError); ok {
				return nil, se
			}
			return nil, &StateError{Name: ErrNameResultPathMismatch, Cause: err.Error()}
		}
		out = m
	}
	return out, nil
}

// fieldPathAt appends a field name to a document-rooted path, treating "$"
// as the implicit "$." prefix rather than duplicating the dot.
func fieldPathAt(basePath, field string) string {
	if basePath == "$" {
		return "$." + field
	}
	return basePath + "." + field
}
