package anthropicagent

import (
	"context"
	"testing"

	"github.com/dshills/asl-go/asl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsModelWhenEmpty(t *testing.T) {
	a := New("claude", "test-key", "")
	assert.Equal(t, "claude-sonnet-4-5-20250929", a.Model)
	assert.Equal(t, "claude", a.Name())
}

func TestNew_KeepsExplicitModel(t *testing.T) {
	a := New("claude", "test-key", "claude-opus-4")
	assert.Equal(t, "claude-opus-4", a.Model)
}

func TestExecute_MissingPromptReturnsValidationAgentError(t *testing.T) {
	a := New("claude", "test-key", "")

	_, err := a.Execute(context.Background(), asl.Document{})
	require.Error(t, err)
	ae, ok := asl.AsAgentError(err)
	require.True(t, ok)
	assert.Equal(t, asl.ErrNameValidationError, ae.Name)
}
