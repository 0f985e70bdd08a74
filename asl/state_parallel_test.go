package asl

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// concurrencyTrackingAgent blocks until released, recording the peak number
// of concurrent Execute calls observed across all instances sharing counter.
type concurrencyTrackingAgent struct {
	name    string
	counter *int32
	peak    *int32
	release chan struct{}
}

func (a *concurrencyTrackingAgent) Name() string { return a.name }

func (a *concurrencyTrackingAgent) Execute(ctx context.Context, input Document) (Document, error) {
	cur := atomic.AddInt32(a.counter, 1)
	for {
		p := atomic.LoadInt32(a.peak)
		if cur <= p || atomic.CompareAndSwapInt32(a.peak, p, cur) {
			break
		}
	}
	<-a.release
	atomic.AddInt32(a.counter, -1)
	return Document{}, nil
}

func parallelWorkflow(branches ...*Workflow) *Workflow {
	return &Workflow{
		StartAt: "Fan",
		States: map[string]*State{
			"Fan": {
				Type:     StateTypeParallel,
				Branches: branches,
				End:      true,
			},
		},
	}
}

func branchUsingAgent(agentName string) *Workflow {
	return &Workflow{
		StartAt: "Work",
		States: map[string]*State{
			"Work": {Type: StateTypeTask, Agent: agentName, End: true},
		},
	}
}

func TestParallel_CollectsBranchOutputsInDeclarationOrder(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&echoAgent{name: "a", extra: Document{"branch": "a"}}))
	require.NoError(t, reg.Register(&echoAgent{name: "b", extra: Document{"branch": "b"}}))
	eng := New(reg)

	wf := parallelWorkflow(branchUsingAgent("a"), branchUsingAgent("b"))

	res, err := eng.Run(context.Background(), "run-parallel-1", wf, Document{"seed": 1})
	require.NoError(t, err)
	require.True(t, res.Succeeded)

	out, ok := res.Output.([]interface{})
	require.True(t, ok)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].(Document)["branch"])
	assert.Equal(t, "b", out[1].(Document)["branch"])
}

func TestParallel_AnyBranchFailureFailsTheWholeState(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(&echoAgent{name: "ok"}))
	require.NoError(t, reg.Register(&echoAgent{name: "bad", err: &AgentError{Name: "Custom.Boom", Cause: "bang"}}))
	eng := New(reg)

	wf := parallelWorkflow(branchUsingAgent("ok"), branchUsingAgent("bad"))

	res, err := eng.Run(context.Background(), "run-parallel-2", wf, Document{})
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
}

func TestParallel_HonorsDeclaredMaxConcurrency(t *testing.T) {
	var counter, peak int32
	release := make(chan struct{})

	reg := NewRegistry()
	for _, n := range []string{"a", "b", "c", "d"} {
		require.NoError(t, reg.Register(&concurrencyTrackingAgent{name: n, counter: &counter, peak: &peak, release: release}))
	}
	eng := New(reg)

	wf := &Workflow{
		StartAt: "Fan",
		States: map[string]*State{
			"Fan": {
				Type:           StateTypeParallel,
				Branches:       []*Workflow{branchUsingAgent("a"), branchUsingAgent("b"), branchUsingAgent("c"), branchUsingAgent("d")},
				MaxConcurrency: 2,
				End:            true,
			},
		},
	}

	done := make(chan struct{})
	go func() {
		_, _ = eng.Run(context.Background(), "run-parallel-maxconc", wf, Document{})
		close(done)
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&counter) == 2 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond) // give a would-be third branch a chance to start if the cap went unenforced
	assert.Equal(t, int32(2), atomic.LoadInt32(&counter))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))

	close(release)
	<-done
}

func TestParallel_SiblingBranchesGetDistinctChildSeeds(t *testing.T) {
	eng := New(NewRegistry())
	parent := &run{engine: eng, id: "run-parallel-3", acct: NewAccountant(nil, nil), rng: newRNG("run-parallel-3")}

	a := parent.childRun("parallel:Fan:0")
	b := parent.childRun("parallel:Fan:1")

	assert.NotEqual(t, a.rng.Int63(), b.rng.Int63())
}
