// Package agent provides asl.Agent implementations: a mock for tests, an
// HTTP bridge to an out-of-process agent, and provider-specific wrappers
// around the Anthropic, OpenAI, and Google chat SDKs.
package agent

import (
	"context"
	"sync"

	"github.com/dshills/asl-go/asl"
)

// Mock is a test double for asl.Agent: a configurable, call-recording
// stand-in for a real agent, grounded on the teacher's MockChatModel.
type Mock struct {
	MockName  string
	Responses []asl.Document
	Err       error

	mu        sync.Mutex
	Calls     []asl.Document
	callIndex int
}

func (m *Mock) Name() string { return m.MockName }

// Execute returns the next configured Response in order, repeating the last
// one once exhausted, or Err if set. Records every call made with a live
// context; a call whose context is already done returns ctx.Err() and is
// not recorded.
func (m *Mock) Execute(ctx context.Context, input asl.Document) (asl.Document, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, input)

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return asl.Document{}, nil
	}
	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// Reset clears call history, for reuse across test cases.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.callIndex = 0
}

// CallCount reports how many times Execute has run.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
