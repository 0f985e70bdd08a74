package asl

import "time"

// execContext is the live, mutable execution context; contextView renders
// the read-only "$$" record exposed to path expressions at a point in time.
type execContext struct {
	id         string
	startTime  time.Time
	acct       *Accountant
	stateName  string
	enteredAt  time.Time
	retryCount int
	mapIndex   int
	mapValue   interface{}
	inMapIter  bool
}

// view renders the current execContext as the read-only "$$" Document per
// §3's Execution/State/Map.Item fields.
func (c *execContext) view() Document {
	exec := Document{
		"Id":         c.id,
		"StartTime":  c.startTime.Format(time.RFC3339Nano),
		"Cost":       c.acct.Cost(),
		"TokensUsed": float64(c.acct.Tokens()),
	}
	state := Document{
		"Name":        c.stateName,
		"EnteredTime": c.enteredAt.Format(time.RFC3339Nano),
		"RetryCount":  float64(c.retryCount),
	}
	v := Document{
		"Execution": exec,
		"State":     state,
	}
	if c.inMapIter {
		v["Map"] = Document{
			"Item": Document{
				"Index": float64(c.mapIndex),
				"Value": c.mapValue,
			},
		}
	}
	return v
}

// forMapItem returns a copy of the context scoped to one Map iteration.
func (c *execContext) forMapItem(index int, value interface{}) *execContext {
	cp := *c
	cp.inMapIter = true
	cp.mapIndex = index
	cp.mapValue = value
	return &cp
}

// forState returns a copy of the context entering a new state.
func (c *execContext) forState(name string) *execContext {
	cp := *c
	cp.stateName = name
	cp.enteredAt = time.Now()
	cp.retryCount = 0
	return &cp
}
