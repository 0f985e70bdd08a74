package asl

import "errors"

// Engine-defined error names. All are prefixed "States." per the engine's
// hierarchical error-naming convention; agent-defined names are free-form and
// conventionally avoid that prefix.
const (
	ErrNameAll                   = "States.ALL"
	ErrNameTimeout               = "States.Timeout"
	ErrNameTaskFailed            = "States.TaskFailed"
	ErrNameAgentNotFound         = "States.AgentNotFound"
	ErrNameParameterPathFailure  = "States.ParameterPathFailure"
	ErrNameResultPathMismatch    = "States.ResultPathMismatch"
	ErrNameIntrinsicFailure      = "States.IntrinsicFailure"
	ErrNameBudgetExceeded        = "States.BudgetExceeded"
	ErrNamePermissions           = "States.Permissions"
	ErrNameValidationError       = "States.ValidationError"
	ErrNameRateLimitExceeded     = "States.RateLimitExceeded"
)

// ErrMaxStepsExceeded guards against runaway workflows: the engine terminates
// a run that transitions through more states than the WithMaxSteps limit allows.
var ErrMaxStepsExceeded = errors.New("asl: execution exceeded maximum step limit")

// ErrNoSuchCheckpoint is a sentinel a Store implementation may return when a
// checkpoint id is unknown. Resume returns the Store's error unchanged; the
// backends in the store package return store.ErrNotFound instead.
var ErrNoSuchCheckpoint = errors.New("asl: no such checkpoint")

// StateError is the typed error raised while running a state body. Name is
// one of the States.* constants above or an agent-defined name; Cause is a
// human-readable message. StateError is what gets bound to the pre-body state
// input and matched against Retry/Catch rules.
type StateError struct {
	Name   string
	Cause  string
	State  string
	Wraps  error
}

func (e *StateError) Error() string {
	if e.State != "" {
		return e.State + ": " + e.Name + ": " + e.Cause
	}
	return e.Name + ": " + e.Cause
}

func (e *StateError) Unwrap() error { return e.Wraps }

func newStateError(state, name, cause string) *StateError {
	return &StateError{State: state, Name: name, Cause: cause}
}

func newStateErrorWrap(state, name, cause string, wrapped error) *StateError {
	return &StateError{State: state, Name: name, Cause: cause, Wraps: wrapped}
}

// ValidationError is raised by the Validator before any agent executes.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return ErrNameValidationError + ": " + e.Message }

// AgentError is the typed failure an Agent implementation may return from
// Execute to signal a named, retryable-or-catchable condition instead of a
// generic States.TaskFailed.
type AgentError struct {
	Name    string
	Cause   string
	Details Document
}

func (e *AgentError) Error() string { return e.Name + ": " + e.Cause }

// AsAgentError extracts an *AgentError from err via errors.As.
func AsAgentError(err error) (*AgentError, bool) {
	var ae *AgentError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
