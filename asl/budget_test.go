package asl

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudget_UnmarshalsQuotedDollarMaxCost(t *testing.T) {
	var b Budget
	require.NoError(t, json.Unmarshal([]byte(`{"MaxCost":"$1.00","OnExceed":"Fail"}`), &b))
	require.NotNil(t, b.MaxCost)
	assert.InDelta(t, 1.0, *b.MaxCost, 0.0001)
	assert.Equal(t, OnExceedFail, b.OnExceed)
}

func TestBudget_UnmarshalsBareNumberMaxCost(t *testing.T) {
	var b Budget
	require.NoError(t, json.Unmarshal([]byte(`{"MaxCost":2.5}`), &b))
	require.NotNil(t, b.MaxCost)
	assert.InDelta(t, 2.5, *b.MaxCost, 0.0001)
}

func TestBudget_UnmarshalRejectsUnparseableMaxCost(t *testing.T) {
	var b Budget
	err := json.Unmarshal([]byte(`{"MaxCost":"free"}`), &b)
	assert.Error(t, err)
}

type recordingNotifier struct {
	alerts []string
}

func (n *recordingNotifier) OnAlert(level, message string) {
	n.alerts = append(n.alerts, level+": "+message)
}

func TestAccountant_ChargeWithinBudget(t *testing.T) {
	maxCost := 10.0
	a := NewAccountant(&Budget{MaxCost: &maxCost}, nil)

	outcome := a.Charge("Work", 1.0, 100)
	assert.Equal(t, outcomeOK, outcome)
	assert.InDelta(t, 1.0, a.Cost(), 0.0001)
	assert.Equal(t, 100, a.Tokens())
}

func TestAccountant_OnExceedFail(t *testing.T) {
	maxCost := 5.0
	a := NewAccountant(&Budget{MaxCost: &maxCost, OnExceed: OnExceedFail}, nil)

	outcome := a.Charge("Work", 6.0, 0)
	assert.Equal(t, outcomeFail, outcome)
}

func TestAccountant_OnExceedPauseAndNotify(t *testing.T) {
	maxCost := 5.0
	a := NewAccountant(&Budget{MaxCost: &maxCost, OnExceed: OnExceedPauseNotify}, nil)

	outcome := a.Charge("Work", 6.0, 0)
	assert.Equal(t, outcomePauseAndNotify, outcome)
}

func TestAccountant_AlertFiresOnce(t *testing.T) {
	maxCost := 10.0
	notifier := &recordingNotifier{}
	budget := &Budget{
		MaxCost: &maxCost,
		Alerts:  []AlertRule{{At: "BudgetAtNPercent:50", Notify: []string{"log"}}},
	}
	a := NewAccountant(budget, notifier)

	a.Charge("Work", 6.0, 0)
	a.Charge("Work", 1.0, 0)

	require.Len(t, notifier.alerts, 1)
	assert.Contains(t, notifier.alerts[0], "50")
}

func TestAccountant_FallbackCascadeSwitchesModel(t *testing.T) {
	maxCost := 10.0
	budget := &Budget{
		MaxCost: &maxCost,
		Fallback: &Fallback{
			Cascade: []CascadeRule{{When: "BudgetAtNPercent:80", UseModel: "cheap-model"}},
		},
	}
	a := NewAccountant(budget, nil)

	a.Charge("Work", 9.0, 0)
	assert.Equal(t, "cheap-model", a.ActiveModel())
}

func TestApplyBudgetFallback_NoOpUntilCascadeFires(t *testing.T) {
	maxCost := 10.0
	a := NewAccountant(&Budget{MaxCost: &maxCost, Fallback: &Fallback{
		Cascade: []CascadeRule{{When: "BudgetAtNPercent:80", UseModel: "cheap-model"}},
	}}, nil)

	in := Document{"prompt": "hi"}
	out := applyBudgetFallback(a, in)
	assert.Equal(t, in, out)
	_, hasModel := out["_model"]
	assert.False(t, hasModel)
}

func TestApplyBudgetFallback_InjectsModelAndReduceQualityAfterCascade(t *testing.T) {
	maxCost := 10.0
	a := NewAccountant(&Budget{MaxCost: &maxCost, Fallback: &Fallback{
		Cascade: []CascadeRule{{When: "BudgetAtNPercent:50", UseModel: "cheap-model", Action: CascadeActionReduceQuality}},
	}}, nil)

	a.Charge("Work", 6.0, 0)

	in := Document{"prompt": "hi"}
	out := applyBudgetFallback(a, in)
	assert.Equal(t, "cheap-model", out["_model"])
	assert.Equal(t, true, out["_reduce_quality"])
	assert.Equal(t, "hi", out["prompt"])
	_, origUnmodified := in["_model"]
	assert.False(t, origUnmodified, "applyBudgetFallback must not mutate its input")
}

func TestTask_ReceivesFallbackModelAfterCascadeFiresInEarlierTask(t *testing.T) {
	charger := &echoAgent{name: "charger", extra: Document{"_cost": 6.0}}
	checker := &echoAgent{name: "checker"}
	reg := NewRegistry()
	require.NoError(t, reg.Register(charger))
	require.NoError(t, reg.Register(checker))
	eng := New(reg)

	maxCost := 10.0
	wf := &Workflow{
		StartAt: "Charge",
		Budget: &Budget{
			MaxCost: &maxCost,
			Fallback: &Fallback{
				Cascade: []CascadeRule{{When: "BudgetAtNPercent:50", UseModel: "cheap-model"}},
			},
		},
		States: map[string]*State{
			"Charge": {Type: StateTypeTask, Agent: "charger", Next: "Check"},
			"Check":  {Type: StateTypeTask, Agent: "checker", End: true},
		},
	}

	res, err := eng.Run(context.Background(), "run-budget-fallback", wf, Document{"seed": "x"})
	require.NoError(t, err)
	require.True(t, res.Succeeded)

	require.Len(t, checker.calls, 1)
	assert.Equal(t, "cheap-model", checker.calls[0]["_model"])
}

func TestAccountant_ChargeFromResultReadsReservedKeys(t *testing.T) {
	a := NewAccountant(nil, nil)
	outcome := a.chargeFromResult("Work", Document{"_cost": 0.25, "_tokens": 50.0, "text": "hi"})
	assert.Equal(t, outcomeOK, outcome)
	assert.InDelta(t, 0.25, a.Cost(), 0.0001)
	assert.Equal(t, 50, a.Tokens())
}
