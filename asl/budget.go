package asl

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// OnExceedPolicy names what happens once a budget threshold is exceeded
// (§3, §4.6).
type OnExceedPolicy string

const (
	OnExceedFail         OnExceedPolicy = "Fail"
	OnExceedPauseNotify  OnExceedPolicy = "PauseAndNotify"
	OnExceedContinue     OnExceedPolicy = "Continue"
	OnExceedUseFallback  OnExceedPolicy = "UseFallback"
)

// CascadeAction names the fallback action taken when a Fallback.Cascade rule
// fires (§4.6); ReduceQuality is the only non-model-swap action the source
// defines.
type CascadeAction string

const (
	CascadeActionReduceQuality CascadeAction = "ReduceQuality"
)

// CascadeRule is one entry of Budget.Fallback.Cascade (§3).
type CascadeRule struct {
	When     string        `json:"When"`
	UseModel string        `json:"UseModel,omitempty"`
	Action   CascadeAction `json:"Action,omitempty"`

	thresholdPct float64
}

// Fallback is Budget.Fallback (§3).
type Fallback struct {
	Cascade []CascadeRule `json:"Cascade"`
}

// AlertRule is one entry of Budget.Alerts (§3).
type AlertRule struct {
	At     string   `json:"At"`
	Notify []string `json:"Notify"`

	thresholdPct float64
}

// Budget is the Budget record attachable at workflow or state scope (§3).
// MaxCost is dollars and accepts either a bare JSON number or the quoted
// "$N.NN" form S5 uses ({MaxCost:"$1.00"}).
type Budget struct {
	MaxCost   *float64       `json:"MaxCost,omitempty"`
	MaxTokens *int           `json:"MaxTokens,omitempty"`
	OnExceed  OnExceedPolicy `json:"OnExceed,omitempty"`
	Fallback  *Fallback      `json:"Fallback,omitempty"`
	Alerts    []AlertRule    `json:"Alerts,omitempty"`
}

// UnmarshalJSON lets MaxCost arrive as either a bare number or a
// "$"-prefixed string, since the spec's own budget examples write dollar
// amounts quoted.
func (b *Budget) UnmarshalJSON(data []byte) error {
	type alias Budget
	aux := struct {
		MaxCost json.RawMessage `json:"MaxCost,omitempty"`
		*alias
	}{alias: (*alias)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.MaxCost) == 0 {
		return nil
	}
	cost, err := parseMoney(aux.MaxCost)
	if err != nil {
		return fmt.Errorf("Budget.MaxCost: %w", err)
	}
	b.MaxCost = &cost
	return nil
}

func parseMoney(raw json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("must be a number or a %q-prefixed string, got %s", "$", raw)
	}
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid money value %q: %w", s, err)
	}
	return n, nil
}

// StateCost accumulates the cost/token charge attributed to one state name,
// for the Result's costBreakdown (§6).
type StateCost struct {
	Cost   float64
	Tokens int
}

// Accountant is the Budget Accountant (C6): a single mutex-protected record
// of cumulative cost/token charges, generalizing the teacher's CostTracker
// (graph/cost.go) from a per-model USD ledger into the full alert/fallback
// budget machinery of §4.6. Budget counters are global per execution; Map
// and Parallel children share the same Accountant instance (§4.6, §5).
type Accountant struct {
	mu sync.Mutex

	budget *Budget

	cost   float64
	tokens int

	perState map[string]*StateCost

	crossedAlerts  map[string]bool
	crossedCascade map[string]bool
	activeModel    string
	reduceQuality  bool

	notifier AlertNotifier
}

// NewAccountant creates the accountant for one run, scoped to budget (which
// may be nil if the workflow declares none).
func NewAccountant(budget *Budget, notifier AlertNotifier) *Accountant {
	a := &Accountant{
		budget:         budget,
		perState:       map[string]*StateCost{},
		crossedAlerts:  map[string]bool{},
		crossedCascade: map[string]bool{},
		notifier:       notifier,
	}
	if budget != nil {
		for i := range budget.Alerts {
			budget.Alerts[i].thresholdPct = parsePercent(budget.Alerts[i].At)
		}
		if budget.Fallback != nil {
			for i := range budget.Fallback.Cascade {
				budget.Fallback.Cascade[i].thresholdPct = parsePercent(budget.Fallback.Cascade[i].When)
			}
		}
	}
	return a
}

func parsePercent(s string) float64 {
	var pct float64
	_, _ = fmt.Sscanf(s, "BudgetAtNPercent:%f", &pct)
	if pct == 0 {
		_, _ = fmt.Sscanf(s, "%f%%", &pct)
	}
	return pct
}

// Cost returns the cumulative USD cost charged so far.
func (a *Accountant) Cost() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cost
}

// Tokens returns the cumulative token count charged so far.
func (a *Accountant) Tokens() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.tokens
}

// ActiveModel returns the model name a fallback cascade rule has switched
// Tasks to, or "" if none has fired.
func (a *Accountant) ActiveModel() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.activeModel
}

// ReduceQuality reports whether a cascade rule with Action: ReduceQuality
// has fired.
func (a *Accountant) ReduceQuality() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reduceQuality
}

// applyBudgetFallback injects the out-of-band _model/_reduce_quality
// parameters a crossed Fallback.Cascade rule requires (§4.6, §6) into a
// Task's evaluated input, without mutating the caller's document.
func applyBudgetFallback(acct *Accountant, input Document) Document {
	model := acct.ActiveModel()
	reduce := acct.ReduceQuality()
	if model == "" && !reduce {
		return input
	}
	out := deepCopyDocument(input)
	if model != "" {
		out["_model"] = model
	}
	if reduce {
		out["_reduce_quality"] = true
	}
	return out
}

// exceedOutcome enumerates what Charge found after applying a charge.
type exceedOutcome int

const (
	outcomeOK exceedOutcome = iota
	outcomeFail
	outcomePauseAndNotify
	outcomeContinue
)

// Charge applies a Task's _cost/_tokens charge for stateName and evaluates
// alerts, fallback cascades, and OnExceed, in that order, per §4.6. It
// returns the outcome the caller (the Task interpreter) must act on.
func (a *Accountant) Charge(stateName string, cost float64, tokens int) exceedOutcome {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cost += cost
	a.tokens += tokens
	sc := a.perState[stateName]
	if sc == nil {
		sc = &StateCost{}
		a.perState[stateName] = sc
	}
	sc.Cost += cost
	sc.Tokens += tokens

	if a.budget == nil {
		return outcomeOK
	}

	for i := range a.budget.Alerts {
		rule := a.budget.Alerts[i]
		if a.crossedPercent(rule.thresholdPct) && !a.crossedAlerts[rule.At] {
			a.crossedAlerts[rule.At] = true
			if a.notifier != nil {
				a.notifier.OnAlert("budget", fmt.Sprintf("budget alert: crossed %s", rule.At))
			}
		}
	}

	if a.budget.Fallback != nil {
		for i := range a.budget.Fallback.Cascade {
			rule := a.budget.Fallback.Cascade[i]
			key := fmt.Sprintf("%d", i)
			if a.crossedPercent(rule.thresholdPct) && !a.crossedCascade[key] {
				a.crossedCascade[key] = true
				if rule.UseModel != "" {
					a.activeModel = rule.UseModel
				}
				if rule.Action == CascadeActionReduceQuality {
					a.reduceQuality = true
				}
			}
		}
	}

	if a.exceeded() {
		switch a.budget.OnExceed {
		case OnExceedPauseNotify:
			return outcomePauseAndNotify
		case OnExceedContinue:
			return outcomeContinue
		case OnExceedUseFallback:
			return outcomeContinue
		case OnExceedFail, "":
			return outcomeFail
		}
	}
	return outcomeOK
}

func (a *Accountant) exceeded() bool {
	if a.budget.MaxCost != nil && a.cost > *a.budget.MaxCost {
		return true
	}
	if a.budget.MaxTokens != nil && a.tokens > *a.budget.MaxTokens {
		return true
	}
	return false
}

func (a *Accountant) crossedPercent(pct float64) bool {
	if pct <= 0 {
		return false
	}
	if a.budget.MaxCost != nil && *a.budget.MaxCost > 0 {
		if a.cost/(*a.budget.MaxCost)*100 >= pct {
			return true
		}
	}
	if a.budget.MaxTokens != nil && *a.budget.MaxTokens > 0 {
		if float64(a.tokens)/float64(*a.budget.MaxTokens)*100 >= pct {
			return true
		}
	}
	return false
}

// Breakdown returns a snapshot of the per-state cost ledger for the Result.
func (a *Accountant) Breakdown() map[string]StateCost {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]StateCost, len(a.perState))
	for k, v := range a.perState {
		out[k] = *v
	}
	return out
}

// chargeFromResult extracts the reserved _tokens/_cost keys from a Task
// result and applies them, per §4.4.1/§4.6. Non-Task states contribute zero
// (§9 open question resolution).
func (a *Accountant) chargeFromResult(stateName string, result Document) exceedOutcome {
	cost := 0.0
	tokens := 0
	if v, ok := result["_cost"]; ok {
		if n, ok := asNumber(v); ok {
			cost = n
		}
	}
	if v, ok := result["_tokens"]; ok {
		if n, ok := asNumber(v); ok {
			tokens = int(n)
		}
	}
	return a.Charge(stateName, cost, tokens)
}
