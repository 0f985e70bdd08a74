package asl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_NilWorkflow(t *testing.T) {
	errs := Validate(nil)
	assert.Len(t, errs, 1)
}

func TestValidate_UnknownStartAt(t *testing.T) {
	wf := &Workflow{StartAt: "Nope", States: map[string]*State{"A": {Type: StateTypeSucceed}}}
	errs := Validate(wf)
	assert.NotEmpty(t, errs)
}

func TestValidate_NoStates(t *testing.T) {
	wf := &Workflow{StartAt: "A", States: map[string]*State{}}
	errs := Validate(wf)
	assert.NotEmpty(t, errs)
}

func TestValidate_MissingNextOrEnd(t *testing.T) {
	wf := &Workflow{
		StartAt: "A",
		States:  map[string]*State{"A": {Type: StateTypePass}},
	}
	errs := Validate(wf)
	assert.NotEmpty(t, errs)
}

func TestValidate_DanglingNextReference(t *testing.T) {
	wf := &Workflow{
		StartAt: "A",
		States: map[string]*State{
			"A": {Type: StateTypePass, Next: "Ghost"},
		},
	}
	errs := Validate(wf)
	assert.NotEmpty(t, errs)
}

func TestValidate_TaskRequiresAgent(t *testing.T) {
	wf := &Workflow{
		StartAt: "A",
		States:  map[string]*State{"A": {Type: StateTypeTask, End: true}},
	}
	errs := Validate(wf)
	assert.NotEmpty(t, errs)
}

func TestValidate_ChoiceRequiresAtLeastOneEntry(t *testing.T) {
	wf := &Workflow{
		StartAt: "A",
		States:  map[string]*State{"A": {Type: StateTypeChoice, Default: "A"}},
	}
	errs := Validate(wf)
	assert.NotEmpty(t, errs)
}

func TestValidate_WaitRequiresOneDurationField(t *testing.T) {
	wf := &Workflow{
		StartAt: "A",
		States:  map[string]*State{"A": {Type: StateTypeWait, End: true}},
	}
	errs := Validate(wf)
	assert.NotEmpty(t, errs)
}

func TestValidate_FailRequiresErrorOrErrorPath(t *testing.T) {
	wf := &Workflow{
		StartAt: "A",
		States:  map[string]*State{"A": {Type: StateTypeFail}},
	}
	errs := Validate(wf)
	assert.NotEmpty(t, errs)
}

func TestValidate_MapRequiresItemsPathAndIterator(t *testing.T) {
	wf := &Workflow{
		StartAt: "A",
		States:  map[string]*State{"A": {Type: StateTypeMap, End: true}},
	}
	errs := Validate(wf)
	assert.NotEmpty(t, errs)
}

func TestValidate_ParallelRequiresAtLeastOneBranch(t *testing.T) {
	wf := &Workflow{
		StartAt: "A",
		States:  map[string]*State{"A": {Type: StateTypeParallel, End: true}},
	}
	errs := Validate(wf)
	assert.NotEmpty(t, errs)
}

func TestValidate_DebateRequiresTwoParticipantsAndPositiveRounds(t *testing.T) {
	wf := &Workflow{
		StartAt: "A",
		States: map[string]*State{
			"A": {Type: StateTypeDebate, Agents: []string{"solo"}, Rounds: 0, End: true},
		},
	}
	errs := Validate(wf)
	assert.NotEmpty(t, errs)
}

func TestValidate_RetryRuleSanity(t *testing.T) {
	wf := &Workflow{
		StartAt: "A",
		States: map[string]*State{
			"A": {
				Type:  StateTypeTask,
				Agent: "x",
				End:   true,
				Retry: []RetryRule{{ErrorEquals: nil, MaxAttempts: -1, BackoffRate: 0}},
			},
		},
	}
	errs := Validate(wf)
	assert.GreaterOrEqual(t, len(errs), 3)
}

func TestValidate_UnreachableTerminalCycleIsReported(t *testing.T) {
	wf := &Workflow{
		StartAt: "A",
		States: map[string]*State{
			"A": {Type: StateTypePass, Next: "B"},
			"B": {Type: StateTypePass, Next: "A"},
		},
	}
	errs := Validate(wf)
	assert.NotEmpty(t, errs)
}

func TestValidate_WellFormedWorkflowHasNoErrors(t *testing.T) {
	wf := &Workflow{
		StartAt: "A",
		States: map[string]*State{
			"A": {Type: StateTypeTask, Agent: "worker", Next: "B"},
			"B": {Type: StateTypeSucceed},
		},
	}
	errs := Validate(wf)
	assert.Empty(t, errs)
}

func TestValidate_NestedMapIteratorErrorsSurface(t *testing.T) {
	wf := &Workflow{
		StartAt: "A",
		States: map[string]*State{
			"A": {
				Type:      StateTypeMap,
				ItemsPath: "$.items",
				End:       true,
				Iterator: &Workflow{
					StartAt: "Inner",
					States: map[string]*State{
						"Inner": {Type: StateTypeTask, End: true},
					},
				},
			},
		},
	}
	errs := Validate(wf)
	assert.NotEmpty(t, errs)
}
