package openaiagent

import (
	"context"
	"testing"

	"github.com/dshills/asl-go/asl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsModelWhenEmpty(t *testing.T) {
	a := New("gpt", "test-key", "")
	assert.Equal(t, "gpt-4o", a.Model)
	assert.Equal(t, "gpt", a.Name())
}

func TestNew_KeepsExplicitModel(t *testing.T) {
	a := New("gpt", "test-key", "gpt-4o-mini")
	assert.Equal(t, "gpt-4o-mini", a.Model)
}

func TestExecute_MissingPromptReturnsValidationAgentError(t *testing.T) {
	a := New("gpt", "test-key", "")

	_, err := a.Execute(context.Background(), asl.Document{})
	require.Error(t, err)
	ae, ok := asl.AsAgentError(err)
	require.True(t, ok)
	assert.Equal(t, asl.ErrNameValidationError, ae.Name)
}
