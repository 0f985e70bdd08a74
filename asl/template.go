package asl

import "strings"

// evaluateTemplate recursively walks a Parameters/ResultSelector template.
// Object keys ending in ".$" are stripped of the suffix and their string
// value is evaluated either as a path selector (leading "$") or as an
// intrinsic call; every other key is copied literally. Arrays are walked
// element-wise; scalars pass through unchanged.
func evaluateTemplate(tmpl interface{}, doc interface{}, ctx Document) (interface{}, error) {
	switch t := tmpl.(type) {
	case Document:
		return evaluateTemplateObject(t, doc, ctx)
	case map[string]interface{}:
		return evaluateTemplateObject(Document(t), doc, ctx)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, v := range t {
			ev, err := evaluateTemplate(v, doc, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	default:
		return t, nil
	}
}

func evaluateTemplateObject(t Document, doc interface{}, ctx Document) (Document, error) {
	out := Document{}
	for k, v := range t {
		if strings.HasSuffix(k, ".$") {
			key := strings.TrimSuffix(k, ".$")
			expr, ok := v.(string)
			if !ok {
				return nil, &StateError{Name: ErrNameParameterPathFailure, Cause: "key " + k + " must carry a string path/intrinsic expression"}
			}
			val, err := evaluateDollarExpr(expr, doc, ctx)
			if err != nil {
				return nil, err
			}
			out[key] = val
			continue
		}
		ev, err := evaluateTemplate(v, doc, ctx)
		if err != nil {
			return nil, err
		}
		out[k] = ev
	}
	return out, nil
}

// evaluateDollarExpr dispatches a ".$"-suffixed string value: a bare path
// expression if it starts with "$", otherwise parsed as an intrinsic call.
func evaluateDollarExpr(expr string, doc interface{}, ctx Document) (interface{}, error) {
	if strings.HasPrefix(expr, "$") && !looksLikeIntrinsic(expr) {
		v, found, err := selectPath(doc, ctx, expr)
		if err != nil {
			return nil, &StateError{Name: ErrNameParameterPathFailure, Cause: err.Error()}
		}
		if !found {
			return nil, &StateError{Name: ErrNameParameterPathFailure, Cause: "required path not found: " + expr}
		}
		return v, nil
	}
	node, err := parseExpr(expr)
	if err != nil {
		return nil, &StateError{Name: ErrNameIntrinsicFailure, Cause: err.Error()}
	}
	return evalNode(node, doc, ctx)
}
