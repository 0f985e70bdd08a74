package asl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleMatches_ExactAndWildcard(t *testing.T) {
	assert.True(t, ruleMatches([]string{"States.TaskFailed"}, "States.TaskFailed"))
	assert.True(t, ruleMatches([]string{ErrNameAll}, "Anything.Goes"))
	assert.False(t, ruleMatches([]string{"States.Timeout"}, "States.TaskFailed"))
}

func TestMatchRetryRule_FirstMatchWins(t *testing.T) {
	rules := []RetryRule{
		{ErrorEquals: []string{"States.Timeout"}, MaxAttempts: 1},
		{ErrorEquals: []string{ErrNameAll}, MaxAttempts: 5},
	}

	rule, ok := matchRetryRule(rules, "States.TaskFailed")
	assert.True(t, ok)
	assert.Equal(t, 5, rule.MaxAttempts)

	rule, ok = matchRetryRule(rules, "States.Timeout")
	assert.True(t, ok)
	assert.Equal(t, 1, rule.MaxAttempts)

	_, ok = matchRetryRule(nil, "States.Timeout")
	assert.False(t, ok)
}

func TestMatchCatchRule_FirstMatchWins(t *testing.T) {
	rules := []CatchRule{
		{ErrorEquals: []string{"Custom.Known"}, Next: "Specific"},
		{ErrorEquals: []string{ErrNameAll}, Next: "Fallback"},
	}

	rule, ok := matchCatchRule(rules, "Custom.Known")
	assert.True(t, ok)
	assert.Equal(t, "Specific", rule.Next)

	rule, ok = matchCatchRule(rules, "Custom.Unknown")
	assert.True(t, ok)
	assert.Equal(t, "Fallback", rule.Next)
}

func TestComputeRetryWait_ExponentialBackoff(t *testing.T) {
	rule := RetryRule{IntervalSeconds: 1, BackoffRate: 2}
	rng := newRNG("wait-test")

	assert.Equal(t, float64(1), computeRetryWait(rule, 0, rng).Seconds())
	assert.Equal(t, float64(2), computeRetryWait(rule, 1, rng).Seconds())
	assert.Equal(t, float64(4), computeRetryWait(rule, 2, rng).Seconds())
}

func TestComputeRetryWait_CapsAtMaxInterval(t *testing.T) {
	cap := 3.0
	rule := RetryRule{IntervalSeconds: 1, BackoffRate: 2, MaxIntervalSeconds: &cap}
	rng := newRNG("wait-test")

	assert.Equal(t, cap, computeRetryWait(rule, 5, rng).Seconds())
}

func TestComputeRetryWait_FullJitterStaysWithinBound(t *testing.T) {
	rule := RetryRule{IntervalSeconds: 10, BackoffRate: 1, JitterStrategy: JitterFull}
	rng := newRNG("wait-test")

	for i := 0; i < 20; i++ {
		wait := computeRetryWait(rule, 0, rng).Seconds()
		assert.GreaterOrEqual(t, wait, 0.0)
		assert.Less(t, wait, 10.0)
	}
}
