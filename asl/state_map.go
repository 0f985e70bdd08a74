package asl

import (
	"context"
	"strconv"
)

// runMapBody implements the Map state (§4.4.6): select the array at
// ItemsPath, run the Iterator workflow once per element (each seeing
// $$.Map.Item.Index/Value), and collect results back into an array in
// declaration order. ToleratedFailureCount/Percentage gate how many failed
// iterations still let the Map state succeed as a whole (§5, §9).
func runMapBody(ctx context.Context, r *run, name string, state *State, params interface{}, ectx *execContext) bodyOutcome {
	itemsVal, found, err := selectPath(params, ectx.view(), state.ItemsPath)
	if err != nil {
		return bodyOutcome{err: &StateError{Name: ErrNameParameterPathFailure, State: name, Cause: err.Error()}}
	}
	if !found {
		return bodyOutcome{err: &StateError{Name: ErrNameParameterPathFailure, State: name, Cause: "ItemsPath did not resolve: " + state.ItemsPath}}
	}
	items, ok := asSequence(itemsVal)
	if !ok {
		return bodyOutcome{err: &StateError{Name: ErrNameParameterPathFailure, State: name, Cause: "ItemsPath must resolve to an array"}}
	}

	tolerated := func(total, failed int) bool {
		if state.ToleratedFailureCount > 0 && failed <= state.ToleratedFailureCount {
			return true
		}
		if state.ToleratedFailurePercentage > 0 && total > 0 && (float64(failed)/float64(total)*100) <= state.ToleratedFailurePercentage {
			return true
		}
		return failed == 0
	}

	out, stateErr := runConcurrent(ctx, len(items), state.MaxConcurrency, tolerated, func(cctx context.Context, i int) (interface{}, *StateError) {
		item := items[i]
		child := r.childRun("map:" + name + ":" + strconv.Itoa(i))
		mctx := ectx.forMapItem(i, item)

		itemInput := item
		if state.ItemSelector != nil {
			sel, selErr := evaluateTemplateObject(state.ItemSelector, item, mctx.view())
			if selErr != nil {
				if se, ok := selErr.(*StateError); ok {
					return nil, se
				}
				return nil, &StateError{Name: ErrNameParameterPathFailure, Cause: selErr.Error()}
			}
			itemInput = sel
		}

		child.ectx = mctx
		res, runErr := child.drive(cctx, state.Iterator, state.Iterator.StartAt, itemInput)
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
