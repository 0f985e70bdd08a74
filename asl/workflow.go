package asl

import "encoding/json"

// StateType is the Type discriminator of a state definition (§3).
type StateType string

const (
	StateTypeTask       StateType = "Task"
	StateTypeChoice     StateType = "Choice"
	StateTypeMap        StateType = "Map"
	StateTypeParallel   StateType = "Parallel"
	StateTypePass       StateType = "Pass"
	StateTypeWait       StateType = "Wait"
	StateTypeSucceed    StateType = "Succeed"
	StateTypeFail       StateType = "Fail"
	StateTypeApproval   StateType = "Approval"
	StateTypeDebate     StateType = "Debate"
	StateTypeCheckpoint StateType = "Checkpoint"
)

// Workflow is the top-level record (§3): StartAt names the initial state;
// States maps state name to definition.
type Workflow struct {
	StartAt     string            `json:"StartAt"`
	States      map[string]*State `json:"States"`
	Version     string            `json:"Version,omitempty"`
	Comment     string            `json:"Comment,omitempty"`
	Budget      *Budget           `json:"Budget,omitempty"`
	Imports     []string          `json:"Imports,omitempty"`
	InputSchema json.RawMessage   `json:"InputSchema,omitempty"`
}

// ParseWorkflow decodes a workflow document from JSON. The tagged-variant
// state shape (§9 "tagged variants replace inheritance") is modeled as one
// struct carrying every variant's fields, rather than an interface
// hierarchy; State.Type selects which fields the interpreter consults.
func ParseWorkflow(data []byte) (*Workflow, error) {
	var wf Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// State is the tagged-union state definition: the common envelope fields
// (§4.4) plus every variant's type-specific payload. Only the fields
// relevant to State.Type are consulted by the interpreter for that type.
type State struct {
	Type StateType `json:"Type"`

	// Common envelope (§4.4).
	InputPath      *string  `json:"InputPath,omitempty"`
	Parameters     Document `json:"Parameters,omitempty"`
	ResultSelector Document `json:"ResultSelector,omitempty"`
	ResultPath     *string  `json:"ResultPath,omitempty"`
	OutputPath     *string  `json:"OutputPath,omitempty"`
	Next           string   `json:"Next,omitempty"`
	End            bool     `json:"End,omitempty"`
	Comment        string   `json:"Comment,omitempty"`
	Retry          []RetryRule `json:"Retry,omitempty"`
	Catch          []CatchRule `json:"Catch,omitempty"`
	Budget         *Budget     `json:"Budget,omitempty"`
	TimeoutSeconds   *float64 `json:"TimeoutSeconds,omitempty"`
	HeartbeatSeconds *float64 `json:"HeartbeatSeconds,omitempty"`

	// Task (§4.4.1).
	Agent string `json:"Agent,omitempty"`

	// Pass (§4.4.2).
	Result Document `json:"Result,omitempty"`

	// Choice (§4.4.3). Choices are kept as raw documents because operator
	// names (StringEquals, NumericGreaterThan, ...) appear as dynamic keys.
	Choices []Document `json:"Choices,omitempty"`
	Default string     `json:"Default,omitempty"`

	// Wait (§4.4.4).
	Seconds       *float64 `json:"Seconds,omitempty"`
	Timestamp     *string  `json:"Timestamp,omitempty"`
	SecondsPath   *string  `json:"SecondsPath,omitempty"`
	TimestampPath *string  `json:"TimestampPath,omitempty"`

	// Fail (§4.4.5).
	Error     *string `json:"Error,omitempty"`
	Cause     *string `json:"Cause,omitempty"`
	ErrorPath *string `json:"ErrorPath,omitempty"`
	CausePath *string `json:"CausePath,omitempty"`

	// Map (§4.4.6).
	ItemsPath                  string   `json:"ItemsPath,omitempty"`
	MaxConcurrency             int      `json:"MaxConcurrency,omitempty"`
	ItemSelector               Document `json:"ItemSelector,omitempty"`
	Iterator                   *Workflow `json:"Iterator,omitempty"`
	ToleratedFailureCount      int      `json:"ToleratedFailureCount,omitempty"`
	ToleratedFailurePercentage float64  `json:"ToleratedFailurePercentage,omitempty"`

	// Parallel (§4.4.7).
	Branches []*Workflow `json:"Branches,omitempty"`

	// Approval (§4.4.8).
	Prompt     Document        `json:"Prompt,omitempty"`
	Options    []string        `json:"Options,omitempty"`
	Editable   *EditableSpec   `json:"Editable,omitempty"`
	Timeout    *float64        `json:"Timeout,omitempty"`
	Escalation *EscalationSpec `json:"Escalation,omitempty"`

	// Debate (§4.4.9). Both surface syntaxes (§9 open question) are
	// accepted: Participants, or Agents+Topic.
	Participants  []string          `json:"Participants,omitempty"`
	Agents        []string          `json:"Agents,omitempty"`
	Topic         string            `json:"Topic,omitempty"`
	Rounds        int               `json:"Rounds,omitempty"`
	Communication *CommunicationSpec `json:"Communication,omitempty"`
	Consensus     *ConsensusSpec    `json:"Consensus,omitempty"`
	Arbiter       string            `json:"Arbiter,omitempty"`

	// Checkpoint (§4.4.10).
	Label string `json:"Label,omitempty"`
}

// EditableSpec is Approval.Editable (§4.4.8).
type EditableSpec struct {
	Fields     []string `json:"Fields,omitempty"`
	ResultPath string   `json:"ResultPath,omitempty"`
}

// EscalationSpec is Approval.Escalation (§4.4.8).
type EscalationSpec struct {
	AfterSeconds float64  `json:"AfterSeconds,omitempty"`
	Channels     []string `json:"Channels,omitempty"`
}

// CommunicationStyle is Debate.Communication.Style (§4.4.9).
type CommunicationStyle string

const (
	CommTurnBased   CommunicationStyle = "turn_based"
	CommSimultaneous CommunicationStyle = "simultaneous"
	CommReactive    CommunicationStyle = "reactive"
)

// VisibleHistory is Debate.Communication.VisibleHistory (§4.4.9).
type VisibleHistory string

const (
	VisAll         VisibleHistory = "all"
	VisPreviousOnly VisibleHistory = "previous_only"
	VisOwnOnly     VisibleHistory = "own_only"
	VisNone        VisibleHistory = "none"
)

// CommunicationSpec is Debate.Communication (§4.4.9).
type CommunicationSpec struct {
	Style          CommunicationStyle `json:"Style,omitempty"`
	VisibleHistory VisibleHistory     `json:"VisibleHistory,omitempty"`
}

// ConsensusSpec is Debate.Consensus (§4.4.9).
type ConsensusSpec struct {
	Required bool `json:"Required,omitempty"`
}

// debateParticipants normalizes the two accepted Debate surface syntaxes.
func (s *State) debateParticipants() []string {
	if len(s.Participants) > 0 {
		return s.Participants
	}
	return s.Agents
}

func (s *State) isTerminalTask() bool {
	return s.Type == StateTypeSucceed || s.Type == StateTypeFail
}
