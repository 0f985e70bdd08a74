package asl

import (
	"context"
	"fmt"
	"sync"
)

// Agent is the opaque callable invoked by Task and Debate states. Execute
// maps an input record to an output record and may return an *AgentError to
// signal a named, retryable-or-catchable failure (§4.3, §6).
type Agent interface {
	Name() string
	Execute(ctx context.Context, input Document) (Document, error)
}

// AgentFunc adapts a plain function to the Agent interface, mirroring the
// teacher's NodeFunc adapter.
type AgentFunc struct {
	AgentName string
	Fn        func(ctx context.Context, input Document) (Document, error)
}

func (f AgentFunc) Name() string { return f.AgentName }

func (f AgentFunc) Execute(ctx context.Context, input Document) (Document, error) {
	return f.Fn(ctx, input)
}

// Registry is a name-indexed, read-only-during-execution lookup of agent
// callables, the same shape as the teacher's node map guarded by a
// sync.RWMutex.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
}

// NewRegistry returns an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{agents: map[string]Agent{}}
}

// Register adds or replaces an agent under its own Name().
func (r *Registry) Register(a Agent) error {
	if a == nil {
		return fmt.Errorf("asl: cannot register a nil agent")
	}
	if a.Name() == "" {
		return fmt.Errorf("asl: agent name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.agents == nil {
		r.agents = map[string]Agent{}
	}
	r.agents[a.Name()] = a
	return nil
}

// Lookup resolves an agent by name. A miss is reported as *StateError with
// States.AgentNotFound per §4.3.
func (r *Registry) Lookup(name string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	if !ok {
		return nil, &StateError{Name: ErrNameAgentNotFound, Cause: "no agent registered under name: " + name}
	}
	return a, nil
}

// Names returns the currently registered agent names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.agents))
	for n := range r.agents {
		out = append(out, n)
	}
	return out
}

// ApprovalHandler publishes an Approval state's prompt and awaits a human (or
// automated) response (§6).
type ApprovalHandler interface {
	OnApproval(ctx context.Context, stateName string, prompt Document, options []string) (Document, error)
}

// AlertNotifier is invoked by the Budget Accountant when an Alerts.At
// threshold is crossed, and reused by Approval's Escalation (§4.4.8, §4.6).
type AlertNotifier interface {
	OnAlert(level string, message string)
}
