package asl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const requireAmountSchema = `{
	"type": "object",
	"required": ["amount"],
	"properties": {"amount": {"type": "number"}}
}`

func TestValidate_CompilesInputSchema(t *testing.T) {
	wf := &Workflow{
		StartAt:     "A",
		States:      map[string]*State{"A": {Type: StateTypeSucceed}},
		InputSchema: []byte(requireAmountSchema),
	}
	errs := Validate(wf)
	assert.Empty(t, errs)
}

func TestValidate_RejectsMalformedInputSchema(t *testing.T) {
	wf := &Workflow{
		StartAt:     "A",
		States:      map[string]*State{"A": {Type: StateTypeSucceed}},
		InputSchema: []byte(`{"type": "not-a-real-type-keyword-value"`),
	}
	errs := Validate(wf)
	assert.NotEmpty(t, errs)
}

func TestEngine_Run_RejectsInputFailingSchema(t *testing.T) {
	eng := New(NewRegistry())
	wf := &Workflow{
		StartAt:     "A",
		States:      map[string]*State{"A": {Type: StateTypeSucceed}},
		InputSchema: []byte(requireAmountSchema),
	}

	_, err := eng.Run(context.Background(), "run-schema-1", wf, Document{"no_amount": true})
	require.Error(t, err)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestEngine_Run_AcceptsInputSatisfyingSchema(t *testing.T) {
	eng := New(NewRegistry())
	wf := &Workflow{
		StartAt:     "A",
		States:      map[string]*State{"A": {Type: StateTypeSucceed}},
		InputSchema: []byte(requireAmountSchema),
	}

	res, err := eng.Run(context.Background(), "run-schema-2", wf, Document{"amount": 42.0})
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
}
