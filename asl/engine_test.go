package asl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoAgent returns its input with an extra field, and records every call.
type echoAgent struct {
	name  string
	extra Document
	err   error
	calls []Document
}

func (a *echoAgent) Name() string { return a.name }

func (a *echoAgent) Execute(ctx context.Context, input Document) (Document, error) {
	a.calls = append(a.calls, input)
	if a.err != nil {
		return nil, a.err
	}
	out := Document{}
	for k, v := range input {
		out[k] = v
	}
	for k, v := range a.extra {
		out[k] = v
	}
	return out, nil
}

func newTestEngine(t *testing.T, agents ...Agent) *Engine {
	t.Helper()
	reg := NewRegistry()
	for _, a := range agents {
		require.NoError(t, reg.Register(a))
	}
	return New(reg)
}

func TestEngine_Run_PassThenTask(t *testing.T) {
	worker := &echoAgent{name: "worker", extra: Document{"greeted": true}}
	eng := newTestEngine(t, worker)

	wf := &Workflow{
		StartAt: "Greet",
		States: map[string]*State{
			"Greet": {
				Type:   StateTypePass,
				Result: Document{"step": "greet"},
				Next:   "Work",
			},
			"Work": {
				Type:  StateTypeTask,
				Agent: "worker",
				End:   true,
			},
		},
	}

	res, err := eng.Run(context.Background(), "run-1", wf, Document{"input": "x"})
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	out, ok := res.Output.(Document)
	require.True(t, ok)
	assert.Equal(t, "greet", out["step"])
	assert.Equal(t, true, out["greeted"])
	assert.Len(t, worker.calls, 1)
}

func TestEngine_Run_UnknownAgent(t *testing.T) {
	eng := newTestEngine(t)
	wf := &Workflow{
		StartAt: "Work",
		States: map[string]*State{
			"Work": {Type: StateTypeTask, Agent: "missing", End: true},
		},
	}

	res, err := eng.Run(context.Background(), "run-2", wf, Document{})
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
	require.NotNil(t, res.Error)
	assert.Equal(t, ErrNameAgentNotFound, res.Error.Name)
}

func TestEngine_Run_CatchRecoversFromTaskFailure(t *testing.T) {
	failer := &echoAgent{name: "failer", err: &AgentError{Name: "Custom.Boom", Cause: "kapow"}}
	eng := newTestEngine(t, failer)
	resultPath := "$.error"

	wf := &Workflow{
		StartAt: "Work",
		States: map[string]*State{
			"Work": {
				Type:  StateTypeTask,
				Agent: "failer",
				End:   true,
				Catch: []CatchRule{
					{ErrorEquals: []string{"Custom.Boom"}, Next: "Recover", ResultPath: &resultPath},
				},
			},
			"Recover": {Type: StateTypeSucceed},
		},
	}

	res, err := eng.Run(context.Background(), "run-3", wf, Document{"a": 1})
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	out, ok := res.Output.(Document)
	require.True(t, ok)
	errRecord, ok := out["error"].(Document)
	require.True(t, ok)
	assert.Equal(t, "Custom.Boom", errRecord["Error"])
}

func TestEngine_Run_ChoiceRouting(t *testing.T) {
	eng := newTestEngine(t)
	wf := &Workflow{
		StartAt: "Branch",
		States: map[string]*State{
			"Branch": {
				Type: StateTypeChoice,
				Choices: []Document{
					{"Variable": "$.kind", "StringEquals": "a", "Next": "A"},
				},
				Default: "B",
			},
			"A": {Type: StateTypePass, Result: Document{"got": "a"}, End: true},
			"B": {Type: StateTypePass, Result: Document{"got": "b"}, End: true},
		},
	}

	res, err := eng.Run(context.Background(), "run-4", wf, Document{"kind": "a"})
	require.NoError(t, err)
	out := res.Output.(Document)
	assert.Equal(t, "a", out["got"])

	res, err = eng.Run(context.Background(), "run-5", wf, Document{"kind": "z"})
	require.NoError(t, err)
	out = res.Output.(Document)
	assert.Equal(t, "b", out["got"])
}

func TestEngine_Run_MaxStepsExceeded(t *testing.T) {
	eng := New(NewRegistry(), WithMaxSteps(3))
	// Statically reaches Done via Default, but at runtime the document never
	// changes so the Choice always matches its own Loop branch instead.
	wf := &Workflow{
		StartAt: "Loop",
		States: map[string]*State{
			"Loop": {
				Type:    StateTypeChoice,
				Choices: []Document{{"Variable": "$.x", "StringEquals": "go", "Next": "Loop"}},
				Default: "Done",
			},
			"Done": {Type: StateTypeSucceed},
		},
	}

	_, err := eng.Run(context.Background(), "run-6", wf, Document{"x": "go"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxStepsExceeded)
}
