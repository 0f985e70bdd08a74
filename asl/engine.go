package asl

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"time"
)

// Engine holds the immutable configuration shared across runs: the agent
// registry, observability sinks, and execution limits. Build one with New
// and functional Options, then call Run once per workflow execution.
type Engine struct {
	registry        *Registry
	emitter         Emitter
	metrics         MetricsSink
	store           Store
	approvalHandler ApprovalHandler
	notifier        AlertNotifier
	maxSteps        int
	defaultMaxConcurrency int
}

// New constructs an Engine. registry is required; every other dependency is
// optional and defaults to a no-op.
func New(registry *Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:              registry,
		maxSteps:              10000,
		defaultMaxConcurrency: 8,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Option configures an Engine at construction time, mirroring the teacher's
// functional-options pattern (graph/options.go).
type Option func(*Engine)

func WithEmitter(em Emitter) Option { return func(e *Engine) { e.emitter = em } }

func WithMetrics(m MetricsSink) Option { return func(e *Engine) { e.metrics = m } }

func WithStore(s Store) Option { return func(e *Engine) { e.store = s } }

func WithApprovalHandler(h ApprovalHandler) Option {
	return func(e *Engine) { e.approvalHandler = h }
}

func WithAlertNotifier(n AlertNotifier) Option { return func(e *Engine) { e.notifier = n } }

func WithMaxSteps(n int) Option { return func(e *Engine) { e.maxSteps = n } }

func WithDefaultMaxConcurrency(n int) Option {
	return func(e *Engine) { e.defaultMaxConcurrency = n }
}

// Result is what Run/Resume returns: the terminal document plus the
// execution's accumulated cost ledger (§6).
type Result struct {
	Output        interface{}
	Succeeded     bool
	Error         *StateError
	Cost          float64
	Tokens        int
	CostBreakdown map[string]StateCost
	Steps         int
}

// run is the mutable, per-execution state threaded through runState and
// the per-type state bodies (runTaskBody, runMapBody, and so on). One run is
// created per top-level Run or Resume call; each Map iteration and Parallel
// branch gets its own child run (childRun) that shares the Accountant but
// keeps its own rng and its own step count.
type run struct {
	engine *Engine
	id     string
	wf     *Workflow
	acct   *Accountant
	rng    *rand.Rand
	ectx   *execContext
	steps  int
}

func newRNG(runID string) *rand.Rand {
	h := sha256.Sum256([]byte(runID))
	seed := int64(binary.BigEndian.Uint64(h[:8])) // #nosec G115 -- deterministic replay seed, not security
	return rand.New(rand.NewSource(seed))         // #nosec G404 -- deterministic RNG for replay, not security
}

// Run executes wf to completion, starting at wf.StartAt with input as the
// initial document (§4.8).
func (e *Engine) Run(ctx context.Context, runID string, wf *Workflow, input interface{}) (Result, error) {
	if errs := Validate(wf); len(errs) > 0 {
		return Result{}, &ValidationError{Message: errs[0].Error()}
	}
	if err := validateAgainstInputSchema(wf, input); err != nil {
		return Result{}, &ValidationError{Message: err.Error()}
	}
	r := &run{
		engine: e,
		id:     runID,
		wf:     wf,
		acct:   NewAccountant(wf.Budget, e.notifier),
		rng:    newRNG(runID),
	}
	r.ectx = &execContext{id: runID, startTime: time.Now(), acct: r.acct}
	return r.drive(ctx, wf, wf.StartAt, input)
}

// drive runs one workflow graph (the top-level workflow, or a Map/Parallel
// branch's own Iterator/Branch workflow) from startAt until a terminal state
// or an uncaught failure, honoring the step limit set by WithMaxSteps (§4.8, §5).
func (r *run) drive(ctx context.Context, wf *Workflow, startAt string, input interface{}) (Result, error) {
	doc := input
	name := startAt
	for {
		r.steps++
		if r.engine.maxSteps > 0 && r.steps > r.engine.maxSteps {
			return Result{}, ErrMaxStepsExceeded
		}
		state, ok := wf.States[name]
		if !ok {
			serr := &StateError{Name: ErrNameValidationError, State: name, Cause: "no such state: " + name}
			return Result{Succeeded: false, Error: serr}, nil
		}
		res, err := r.runStateIn(ctx, wf, name, state, doc)
		if err != nil {
			return Result{}, err
		}
		if res.failed {
			return r.finalize(res.failErr, nil, false), nil
		}
		if res.terminal {
			return r.finalize(nil, res.output, true), nil
		}
		doc = res.output
		name = res.next
	}
}

func (r *run) finalize(failErr *StateError, output interface{}, succeeded bool) Result {
	return Result{
		Output:        output,
		Succeeded:     succeeded,
		Error:         failErr,
		Cost:          r.acct.Cost(),
		Tokens:        r.acct.Tokens(),
		CostBreakdown: r.acct.Breakdown(),
		Steps:         r.steps,
	}
}

// runStateIn binds r.wf to wf for the duration of one state execution, so
// a drive() over a Map Iterator or Parallel branch dispatches against that
// sub-workflow's own State map.
func (r *run) runStateIn(ctx context.Context, wf *Workflow, name string, state *State, doc interface{}) (stepResult, error) {
	prev := r.wf
	r.wf = wf
	defer func() { r.wf = prev }()
	return r.runState(ctx, name, state, doc)
}

// Resume continues a previously checkpointed run (C10, §4.10). The
// checkpoint's saved document becomes the input to the state named
// checkpoint.NextState.
func (e *Engine) Resume(ctx context.Context, wf *Workflow, checkpointID string) (Result, error) {
	if e.store == nil {
		return Result{}, &ValidationError{Message: "Resume requires a configured Store"}
	}
	cp, err := e.store.LoadCheckpoint(ctx, checkpointID)
	if err != nil {
		return Result{}, err
	}
	r := &run{
		engine: e,
		id:     cp.RunID,
		wf:     wf,
		acct:   NewAccountant(wf.Budget, e.notifier),
		rng:    newRNG(cp.RunID),
	}
	r.acct.cost = cp.Cost
	r.acct.tokens = cp.Tokens
	r.ectx = &execContext{id: cp.RunID, startTime: cp.Timestamp, acct: r.acct}
	return r.drive(ctx, wf, cp.NextState, cp.Document)
}

// childRun returns an isolated run for one Map iteration or Parallel branch:
// same engine/id/Accountant (both already safe for concurrent use), but its
// own execContext and rand.Rand, since math/rand.Rand is not itself
// concurrency-safe and the teacher avoids sharing one RNG across concurrent
// node executions for the same reason (graph/engine.go's per-item RNG
// derived from OrderKey). branchSeed distinguishes sibling branches
// deterministically so replays reproduce the same per-branch randomness.
func (r *run) childRun(branchSeed string) *run {
	return &run{
		engine: r.engine,
		id:     r.id,
		wf:     r.wf,
		acct:   r.acct,
		rng:    newRNG(r.id + ":" + branchSeed),
		ectx:   r.ectx,
	}
}

func (r *run) emitStateEnter(name string, doc interface{}) {
	if r.engine.emitter == nil {
		return
	}
	r.engine.emitter.Emit(Event{Kind: EventStateEnter, RunID: r.id, State: name, Step: r.steps, Time: time.Now(), Document: doc})
}

func (r *run) emitStateExit(name string, doc interface{}, retryCount int) {
	if r.engine.emitter == nil {
		return
	}
	r.engine.emitter.Emit(Event{Kind: EventStateExit, RunID: r.id, State: name, Step: r.steps, Time: time.Now(), Document: doc, RetryAttempt: retryCount})
}

func (r *run) emitStateError(name string, err *StateError, retryCount int) {
	if r.engine.emitter != nil {
		r.engine.emitter.Emit(Event{Kind: EventStateError, RunID: r.id, State: name, Step: r.steps, Time: time.Now(), Error: err, RetryAttempt: retryCount})
	}
	if r.engine.metrics != nil {
		r.engine.metrics.RecordStateLatency(r.id, name, 0, "error")
	}
}

func (r *run) metricsRetry(name, reason string) {
	if r.engine.metrics != nil {
		r.engine.metrics.IncrementRetries(r.id, name, reason)
	}
	if r.engine.emitter != nil {
		r.engine.emitter.Emit(Event{Kind: EventRetry, RunID: r.id, State: name, Step: r.steps, Time: time.Now(), Meta: map[string]interface{}{"reason": reason}})
	}
}
