package asl

import "fmt"

// Validate statically checks a workflow before any agent executes (C9,
// §4.9): every Next/Default/Catch.Next must resolve, every state carries the
// fields its Type requires, and every state must be able to reach a
// terminal state (Succeed/Fail/End) along some path.
func Validate(wf *Workflow) []error {
	var errs []error
	if wf == nil {
		return []error{fmt.Errorf("workflow is nil")}
	}
	if wf.StartAt == "" {
		errs = append(errs, fmt.Errorf("StartAt is required"))
	} else if _, ok := wf.States[wf.StartAt]; !ok {
		errs = append(errs, fmt.Errorf("StartAt references unknown state %q", wf.StartAt))
	}
	if len(wf.States) == 0 {
		errs = append(errs, fmt.Errorf("workflow declares no states"))
	}
	if len(wf.InputSchema) > 0 {
		if _, err := compileInputSchema(wf.InputSchema); err != nil {
			errs = append(errs, fmt.Errorf("InputSchema: %w", err))
		}
	}

	for name, s := range wf.States {
		errs = append(errs, validateState(wf, name, s)...)
	}

	errs = append(errs, checkReachesTerminal(wf)...)
	return errs
}

func validateState(wf *Workflow, name string, s *State) []error {
	var errs []error
	ref := func(target, field string) {
		if target == "" {
			return
		}
		if _, ok := wf.States[target]; !ok {
			errs = append(errs, fmt.Errorf("state %q: %s references unknown state %q", name, field, target))
		}
	}

	approvalRoutes := s.Type == StateTypeApproval && len(s.Choices) > 0
	if !s.isTerminalTask() && !s.End && s.Next == "" && s.Type != StateTypeChoice && !approvalRoutes {
		errs = append(errs, fmt.Errorf("state %q: must set Next or End", name))
	}
	if s.Next != "" {
		ref(s.Next, "Next")
	}
	for _, c := range s.Choices {
		if nextV, ok := c["Next"]; ok {
			if next, ok := nextV.(string); ok {
				ref(next, "Choices[].Next")
			}
		}
	}
	if s.Default != "" {
		ref(s.Default, "Default")
	}
	for _, c := range s.Catch {
		ref(c.Next, "Catch[].Next")
	}

	switch s.Type {
	case StateTypeTask:
		if s.Agent == "" {
			errs = append(errs, fmt.Errorf("state %q: Task requires Agent", name))
		}
	case StateTypeChoice:
		if len(s.Choices) == 0 {
			errs = append(errs, fmt.Errorf("state %q: Choice requires at least one entry in Choices", name))
		}
	case StateTypeWait:
		if s.Seconds == nil && s.Timestamp == nil && s.SecondsPath == nil && s.TimestampPath == nil {
			errs = append(errs, fmt.Errorf("state %q: Wait requires one of Seconds/Timestamp/SecondsPath/TimestampPath", name))
		}
	case StateTypeFail:
		if s.Error == nil && s.ErrorPath == nil {
			errs = append(errs, fmt.Errorf("state %q: Fail requires Error or ErrorPath", name))
		}
	case StateTypeMap:
		if s.ItemsPath == "" {
			errs = append(errs, fmt.Errorf("state %q: Map requires ItemsPath", name))
		}
		if s.Iterator == nil {
			errs = append(errs, fmt.Errorf("state %q: Map requires Iterator", name))
		} else {
			errs = append(errs, Validate(s.Iterator)...)
		}
	case StateTypeParallel:
		if len(s.Branches) == 0 {
			errs = append(errs, fmt.Errorf("state %q: Parallel requires at least one Branch", name))
		}
		for i, b := range s.Branches {
			for _, e := range Validate(b) {
				errs = append(errs, fmt.Errorf("state %q: Branches[%d]: %w", name, i, e))
			}
		}
	case StateTypeDebate:
		if len(s.debateParticipants()) < 2 {
			errs = append(errs, fmt.Errorf("state %q: Debate requires at least two Participants", name))
		}
		if s.Rounds <= 0 {
			errs = append(errs, fmt.Errorf("state %q: Debate requires Rounds > 0", name))
		}
	}

	for i, rr := range s.Retry {
		if rr.MaxAttempts < 0 {
			errs = append(errs, fmt.Errorf("state %q: Retry[%d].MaxAttempts must be >= 0", name, i))
		}
		if rr.BackoffRate < 1 {
			errs = append(errs, fmt.Errorf("state %q: Retry[%d].BackoffRate must be >= 1", name, i))
		}
		if len(rr.ErrorEquals) == 0 {
			errs = append(errs, fmt.Errorf("state %q: Retry[%d].ErrorEquals must not be empty", name, i))
		}
	}
	return errs
}

// checkReachesTerminal verifies every state can reach Succeed/Fail/End along
// some statically-determinable path. Choice branches and Catch edges all
// count as possible paths; a state with no outgoing edge at all (and not
// itself terminal) is unreachable-to-terminal by construction and is
// already reported by validateState's "must set Next or End" check.
func checkReachesTerminal(wf *Workflow) []error {
	reach := map[string]bool{}
	var visit func(name string, seen map[string]bool) bool
	visit = func(name string, seen map[string]bool) bool {
		if v, ok := reach[name]; ok {
			return v
		}
		if seen[name] {
			return false // cycle without yet-known terminal; resolved by caller's memo once any branch proves reachable
		}
		s, ok := wf.States[name]
		if !ok {
			return false
		}
		if s.isTerminalTask() || s.End {
			reach[name] = true
			return true
		}
		seen[name] = true
		defer delete(seen, name)

		targets := []string{s.Next, s.Default}
		for _, c := range s.Choices {
			if next, ok := c["Next"].(string); ok {
				targets = append(targets, next)
			}
		}
		for _, c := range s.Catch {
			targets = append(targets, c.Next)
		}
		for _, t := range targets {
			if t == "" {
				continue
			}
			if visit(t, seen) {
				reach[name] = true
				return true
			}
		}
		return false
	}

	var errs []error
	for name := range wf.States {
		if !visit(name, map[string]bool{}) {
			errs = append(errs, fmt.Errorf("state %q: no statically reachable path to a terminal state", name))
		}
	}
	return errs
}
