package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/asl-go/asl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock_RespondsInOrderThenRepeatsLast(t *testing.T) {
	m := &Mock{
		MockName: "scripted",
		Responses: []asl.Document{
			{"text": "first"},
			{"text": "second"},
		},
	}

	ctx := context.Background()
	out, err := m.Execute(ctx, asl.Document{})
	require.NoError(t, err)
	assert.Equal(t, "first", out["text"])

	out, err = m.Execute(ctx, asl.Document{})
	require.NoError(t, err)
	assert.Equal(t, "second", out["text"])

	out, err = m.Execute(ctx, asl.Document{})
	require.NoError(t, err)
	assert.Equal(t, "second", out["text"])

	assert.Equal(t, 3, m.CallCount())
}

func TestMock_ReturnsConfiguredError(t *testing.T) {
	boom := errors.New("boom")
	m := &Mock{MockName: "failer", Err: boom}

	_, err := m.Execute(context.Background(), asl.Document{"in": 1})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, m.CallCount())
}

func TestMock_Reset(t *testing.T) {
	m := &Mock{MockName: "m", Responses: []asl.Document{{"text": "a"}}}
	_, _ = m.Execute(context.Background(), asl.Document{})
	m.Reset()
	assert.Equal(t, 0, m.CallCount())

	out, err := m.Execute(context.Background(), asl.Document{})
	require.NoError(t, err)
	assert.Equal(t, "a", out["text"])
}
