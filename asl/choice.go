package asl

import (
	"path/filepath"
	"strings"
	"time"
)

// evalChoice evaluates one Choice rule document against the given document
// and context, per §4.4.3. A choice is either a composite (And/Or/Not) or a
// leaf condition (Variable + one operator key).
func evalChoice(rule Document, doc interface{}, ctx Document) (bool, error) {
	if sub, ok := rule["And"]; ok {
		seq, _ := asSequence(sub)
		for _, r := range seq {
			rd, ok := asDocument(r)
			if !ok {
				return false, &StateError{Name: ErrNameIntrinsicFailure, Cause: "And entries must be choice objects"}
			}
			ok2, err := evalChoice(rd, doc, ctx)
			if err != nil {
				return false, err
			}
			if !ok2 {
				return false, nil
			}
		}
		return true, nil
	}
	if sub, ok := rule["Or"]; ok {
		seq, _ := asSequence(sub)
		for _, r := range seq {
			rd, ok := asDocument(r)
			if !ok {
				return false, &StateError{Name: ErrNameIntrinsicFailure, Cause: "Or entries must be choice objects"}
			}
			ok2, err := evalChoice(rd, doc, ctx)
			if err != nil {
				return false, err
			}
			if ok2 {
				return true, nil
			}
		}
		return false, nil
	}
	if sub, ok := rule["Not"]; ok {
		rd, ok := asDocument(sub)
		if !ok {
			return false, &StateError{Name: ErrNameIntrinsicFailure, Cause: "Not requires a choice object"}
		}
		ok2, err := evalChoice(rd, doc, ctx)
		if err != nil {
			return false, err
		}
		return !ok2, nil
	}
	return evalLeafChoice(rule, doc, ctx)
}

func evalLeafChoice(rule Document, doc interface{}, ctx Document) (bool, error) {
	varPath, _ := rule["Variable"].(string)

	resolveOperand := func(key string) (interface{}, bool, error) {
		if pv, ok := rule[key+"Path"]; ok {
			p, _ := pv.(string)
			v, found, err := selectPath(doc, ctx, p)
			return v, found, err
		}
		v, ok := rule[key]
		return v, ok, nil
	}

	for _, op := range choiceOperators {
		operand, present, err := resolveOperand(op.key)
		if err != nil {
			return false, err
		}
		if !present {
			continue
		}
		if varPath == "" && op.key != "IsPresent" {
			return false, nil
		}
		value, found, err := selectPath(doc, ctx, varPath)
		if err != nil {
			return false, err
		}
		if !found {
			if op.key == "IsPresent" {
				boolOperand, _ := operand.(bool)
				return boolOperand == false, nil
			}
			return false, nil
		}
		return op.eval(value, operand)
	}
	return false, nil
}

type choiceOperator struct {
	key      string
	pathOnly bool
	eval     func(value, operand interface{}) (bool, error)
}

var choiceOperators = []choiceOperator{
	{key: "StringEquals", eval: func(v, o interface{}) (bool, error) {
		vs, _ := v.(string)
		os, _ := o.(string)
		return vs == os, nil
	}},
	{key: "StringLessThan", eval: func(v, o interface{}) (bool, error) {
		vs, _ := v.(string)
		os, _ := o.(string)
		return vs < os, nil
	}},
	{key: "StringGreaterThan", eval: func(v, o interface{}) (bool, error) {
		vs, _ := v.(string)
		os, _ := o.(string)
		return vs > os, nil
	}},
	{key: "StringMatches", eval: func(v, o interface{}) (bool, error) {
		vs, _ := v.(string)
		os, _ := o.(string)
		ok, _ := filepath.Match(os, vs)
		return ok, nil
	}},
	{key: "NumericEquals", eval: func(v, o interface{}) (bool, error) {
		vn, ok1 := asNumber(v)
		on, ok2 := asNumber(o)
		return ok1 && ok2 && vn == on, nil
	}},
	{key: "NumericLessThan", eval: func(v, o interface{}) (bool, error) {
		vn, ok1 := asNumber(v)
		on, ok2 := asNumber(o)
		return ok1 && ok2 && vn < on, nil
	}},
	{key: "NumericGreaterThanEquals", eval: func(v, o interface{}) (bool, error) {
		vn, ok1 := asNumber(v)
		on, ok2 := asNumber(o)
		return ok1 && ok2 && vn >= on, nil
	}},
	{key: "NumericGreaterThan", eval: func(v, o interface{}) (bool, error) {
		vn, ok1 := asNumber(v)
		on, ok2 := asNumber(o)
		return ok1 && ok2 && vn > on, nil
	}},
	{key: "NumericLessThanEquals", eval: func(v, o interface{}) (bool, error) {
		vn, ok1 := asNumber(v)
		on, ok2 := asNumber(o)
		return ok1 && ok2 && vn <= on, nil
	}},
	{key: "BooleanEquals", eval: func(v, o interface{}) (bool, error) {
		vb, _ := v.(bool)
		ob, _ := o.(bool)
		return vb == ob, nil
	}},
	{key: "TimestampEquals", eval: func(v, o interface{}) (bool, error) {
		vt, ok1 := parseTimestamp(v)
		ot, ok2 := parseTimestamp(o)
		return ok1 && ok2 && vt.Equal(ot), nil
	}},
	{key: "TimestampLessThan", eval: func(v, o interface{}) (bool, error) {
		vt, ok1 := parseTimestamp(v)
		ot, ok2 := parseTimestamp(o)
		return ok1 && ok2 && vt.Before(ot), nil
	}},
	{key: "IsPresent", pathOnly: true, eval: func(v, o interface{}) (bool, error) {
		ob, _ := o.(bool)
		return ob, nil
	}},
	{key: "IsNull", eval: func(v, o interface{}) (bool, error) {
		ob, _ := o.(bool)
		return (v == nil) == ob, nil
	}},
	{key: "IsString", eval: func(v, o interface{}) (bool, error) {
		_, isStr := v.(string)
		ob, _ := o.(bool)
		return isStr == ob, nil
	}},
	{key: "IsNumeric", eval: func(v, o interface{}) (bool, error) {
		_, isNum := asNumber(v)
		ob, _ := o.(bool)
		return isNum == ob, nil
	}},
	{key: "IsBoolean", eval: func(v, o interface{}) (bool, error) {
		_, isBool := v.(bool)
		ob, _ := o.(bool)
		return isBool == ob, nil
	}},
	{key: "IsTimestamp", eval: func(v, o interface{}) (bool, error) {
		_, isTs := parseTimestamp(v)
		ob, _ := o.(bool)
		return isTs == ob, nil
	}},
}

func parseTimestamp(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
