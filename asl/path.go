package asl

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// pathSegment is one hop of a parsed path expression: either a named field,
// a numeric array index, or a splat ([*]).
type pathSegment struct {
	field string
	index int
	splat bool
	isIdx bool
}

// parsePath turns "$.a.b[0].c[*]" (or the "$$"-rooted context form) into its
// root marker and an ordered list of segments. The root marker is "$" or "$$".
func parsePath(path string) (root string, segs []pathSegment, err error) {
	switch {
	case strings.HasPrefix(path, "$$"):
		root = "$$"
		path = path[2:]
	case strings.HasPrefix(path, "$"):
		root = "$"
		path = path[1:]
	default:
		return "", nil, fmt.Errorf("path expression must start with $ or $$: %q", path)
	}
	i := 0
	for i < len(path) {
		switch path[i] {
		case '.':
			i++
			start := i
			for i < len(path) && path[i] != '.' && path[i] != '[' {
				i++
			}
			if i == start {
				return "", nil, fmt.Errorf("empty field segment in path %q", path)
			}
			segs = append(segs, pathSegment{field: path[start:i]})
		case '[':
			i++
			start := i
			for i < len(path) && path[i] != ']' {
				i++
			}
			if i >= len(path) {
				return "", nil, fmt.Errorf("unterminated bracket in path %q", path)
			}
			inner := path[start:i]
			i++ // skip ']'
			if inner == "*" {
				segs = append(segs, pathSegment{splat: true})
			} else {
				n, convErr := strconv.Atoi(inner)
				if convErr != nil {
					return "", nil, fmt.Errorf("invalid array index %q in path %q", inner, path)
				}
				segs = append(segs, pathSegment{index: n, isIdx: true})
			}
		default:
			return "", nil, fmt.Errorf("unexpected character %q at position %d in path %q", path[i], i, path)
		}
	}
	return root, segs, nil
}

// gjsonPath renders segments in gjson's dotted/indexed path syntax.
func gjsonPath(segs []pathSegment) string {
	var b strings.Builder
	for i, s := range segs {
		if i > 0 {
			b.WriteByte('.')
		}
		switch {
		case s.splat:
			b.WriteByte('#')
		case s.isIdx:
			b.WriteString(strconv.Itoa(s.index))
		default:
			b.WriteString(s.field)
		}
	}
	return b.String()
}

// selectPath resolves a selector path ("$..." or "$$...") against the current
// document (any JSON-compatible value, not necessarily an object) and the
// read-only execution context view. It returns found=false for any undefined
// intermediate, matching §4.1's "missing yields undefined".
func selectPath(doc interface{}, ctx Document, path string) (interface{}, bool, error) {
	root, segs, err := parsePath(path)
	if err != nil {
		return nil, false, err
	}
	var base interface{}
	switch root {
	case "$$":
		base = ctx
	default:
		base = doc
	}
	if len(segs) == 0 {
		return base, true, nil
	}
	if segs[len(segs)-1].splat {
		return selectTrailingSplat(base, segs)
	}
	b, err := toJSONBytes(base)
	if err != nil {
		return nil, false, err
	}
	res := gjson.GetBytes(b, gjsonPath(segs))
	if !res.Exists() {
		return nil, false, nil
	}
	return res.Value(), true, nil
}

// selectTrailingSplat resolves the array immediately preceding a trailing
// [*] segment and returns it as the ordered sequence of elements (§4.1's
// "Splat [*] returns the ordered sequence of elements"). gjson renders a
// bare trailing "#" segment as the element count rather than the elements
// themselves, so the array has to be fetched one segment short and handed
// back directly instead of going through gjsonPath's "#" rendering.
func selectTrailingSplat(base interface{}, segs []pathSegment) (interface{}, bool, error) {
	prefix := segs[:len(segs)-1]
	if len(prefix) == 0 {
		seq, ok := asSequence(base)
		if !ok {
			return nil, false, nil
		}
		return seq, true, nil
	}
	b, err := toJSONBytes(base)
	if err != nil {
		return nil, false, err
	}
	res := gjson.GetBytes(b, gjsonPath(prefix))
	if !res.Exists() {
		return nil, false, nil
	}
	seq, ok := asSequence(normalizeJSON(res.Value()))
	if !ok {
		return nil, false, nil
	}
	return seq, true, nil
}

// mergeAtPath returns a structurally new document with path positioned to
// hold value. Writing at "$" replaces the document wholesale. Intermediate
// objects are created on demand; intermediate arrays must already exist, or
// States.ResultPathMismatch is raised (§4.1). The document (and the merged
// result) may be any JSON-compatible value: most workflows keep objects at
// the root, but a Map/Parallel result written at "$" replaces it with an
// array.
func mergeAtPath(doc interface{}, path string, value interface{}) (interface{}, error) {
	if path == "" || path == "$" {
		return deepCopyValue(value), nil
	}
	root, segs, err := parsePath(path)
	if err != nil {
		return nil, &StateError{Name: ErrNameResultPathMismatch, Cause: err.Error()}
	}
	if root != "$" {
		return nil, &StateError{Name: ErrNameResultPathMismatch, Cause: "ResultPath must be document-rooted ($...)"}
	}
	if err := checkArrayPrefixes(doc, segs); err != nil {
		return nil, err
	}
	docCopy := deepCopyValue(doc)
	b, err := toJSONBytes(docCopy)
	if err != nil {
		return nil, &StateError{Name: ErrNameResultPathMismatch, Cause: err.Error()}
	}
	out, err := sjson.SetBytes(b, gjsonPath(segs), value)
	if err != nil {
		return nil, &StateError{Name: ErrNameResultPathMismatch, Cause: err.Error()}
	}
	var v interface{}
	if err := json.Unmarshal(out, &v); err != nil {
		return nil, &StateError{Name: ErrNameResultPathMismatch, Cause: err.Error()}
	}
	return normalizeJSON(v), nil
}

// checkArrayPrefixes walks the document along the segment prefix and fails
// with States.ResultPathMismatch the moment an index segment's parent is not
// an already-existing array, per §4.1's asymmetric object/array auto-vivify
// rule. Object segments are always allowed to be absent.
func checkArrayPrefixes(doc interface{}, segs []pathSegment) error {
	cur := doc
	for _, s := range segs {
		if cur == nil {
			if s.isIdx || s.splat {
				return &StateError{Name: ErrNameResultPathMismatch, Cause: "path indexes into a missing array"}
			}
			continue // parent absent; object segments are created on demand
		}
		if s.isIdx || s.splat {
			arr, ok := cur.([]interface{})
			if !ok {
				return &StateError{Name: ErrNameResultPathMismatch, Cause: "path indexes into a non-array value"}
			}
			if s.isIdx {
				if s.index < 0 || s.index > len(arr) {
					return &StateError{Name: ErrNameResultPathMismatch, Cause: fmt.Sprintf("array index %d out of range (len %d)", s.index, len(arr))}
				}
				if s.index == len(arr) {
					cur = nil
				} else {
					cur = arr[s.index]
				}
			} else {
				cur = nil
			}
			continue
		}
		m, ok := asDocument(cur)
		if !ok {
			return nil
		}
		cur = m[s.field]
	}
	return nil
}

// normalizeJSON converts the generic map[string]interface{} nodes produced by
// encoding/json into Document, recursively, so downstream code only ever
// matches on the Document type.
func normalizeJSON(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		out := make(Document, len(x))
		for k, val := range x {
			out[k] = normalizeJSON(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, val := range x {
			out[i] = normalizeJSON(val)
		}
		return out
	default:
		return x
	}
}
