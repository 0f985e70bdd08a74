package asl

import (
	"crypto/md5"  //nolint:gosec // Hash("md5") is a spec-mandated algorithm choice, not used for security.
	"crypto/sha1" //nolint:gosec // same: Hash("sha1") is spec-mandated.
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// intrinsicCall is a parsed "Name(arg, arg, ...)" expression. Arguments are
// themselves exprNode values: string/number/bool/null literals, path
// expressions, or nested intrinsic calls.
type intrinsicCall struct {
	name string
	args []exprNode
}

type exprKind int

const (
	exprLiteral exprKind = iota
	exprPath
	exprCall
)

type exprNode struct {
	kind    exprKind
	literal interface{}
	path    string
	call    *intrinsicCall
}

// looksLikeIntrinsic reports whether s has the shape "Name(...)" and is
// therefore a candidate for intrinsic parsing rather than a literal string.
func looksLikeIntrinsic(s string) bool {
	i := strings.IndexByte(s, '(')
	if i <= 0 || !strings.HasSuffix(s, ")") {
		return false
	}
	name := s[:i]
	for _, r := range name {
		if !(r == '.' || r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// exprParser is a small hand-written recursive-descent parser over intrinsic
// call strings; no reflection, no operator grammar -- just names, dots,
// commas, parens, and literals, per the path/intrinsic evaluator design.
type exprParser struct {
	s   string
	pos int
}

func parseExpr(s string) (exprNode, error) {
	p := &exprParser{s: s}
	p.skipSpace()
	n, err := p.parseNode()
	if err != nil {
		return exprNode{}, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return exprNode{}, fmt.Errorf("unexpected trailing input at %d in %q", p.pos, s)
	}
	return n, nil
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) parseNode() (exprNode, error) {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return exprNode{}, fmt.Errorf("unexpected end of expression")
	}
	c := p.s[p.pos]
	switch {
	case c == '\'' || c == '"':
		return p.parseString(c)
	case c == '$':
		return p.parsePathLiteral()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return p.parseIdentOrCall()
	}
}

func (p *exprParser) parseString(quote byte) (exprNode, error) {
	p.pos++ // skip opening quote
	var b strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == quote {
			p.pos++
			return exprNode{kind: exprLiteral, literal: b.String()}, nil
		}
		if c == '\\' && p.pos+1 < len(p.s) {
			p.pos++
			b.WriteByte(p.s[p.pos])
			p.pos++
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
	return exprNode{}, fmt.Errorf("unterminated string literal in %q", p.s)
}

func (p *exprParser) parsePathLiteral() (exprNode, error) {
	start := p.pos
	p.pos++
	if p.pos < len(p.s) && p.s[p.pos] == '$' {
		p.pos++
	}
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == ',' || c == ')' || c == ' ' {
			break
		}
		p.pos++
	}
	return exprNode{kind: exprPath, path: p.s[start:p.pos]}, nil
}

func (p *exprParser) parseNumber() (exprNode, error) {
	start := p.pos
	if p.s[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.s) && (p.s[p.pos] >= '0' && p.s[p.pos] <= '9' || p.s[p.pos] == '.') {
		p.pos++
	}
	n, err := strconv.ParseFloat(p.s[start:p.pos], 64)
	if err != nil {
		return exprNode{}, fmt.Errorf("invalid number literal %q", p.s[start:p.pos])
	}
	return exprNode{kind: exprLiteral, literal: n}, nil
}

func (p *exprParser) parseIdentOrCall() (exprNode, error) {
	start := p.pos
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '(' || c == ',' || c == ')' || c == ' ' {
			break
		}
		p.pos++
	}
	ident := p.s[start:p.pos]
	switch ident {
	case "true":
		return exprNode{kind: exprLiteral, literal: true}, nil
	case "false":
		return exprNode{kind: exprLiteral, literal: false}, nil
	case "null":
		return exprNode{kind: exprLiteral, literal: nil}, nil
	}
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == '(' {
		p.pos++
		call := &intrinsicCall{name: ident}
		p.skipSpace()
		if p.pos < len(p.s) && p.s[p.pos] == ')' {
			p.pos++
			return exprNode{kind: exprCall, call: call}, nil
		}
		for {
			arg, err := p.parseNode()
			if err != nil {
				return exprNode{}, err
			}
			call.args = append(call.args, arg)
			p.skipSpace()
			if p.pos >= len(p.s) {
				return exprNode{}, fmt.Errorf("unterminated call %q", p.s)
			}
			if p.s[p.pos] == ',' {
				p.pos++
				p.skipSpace()
				continue
			}
			if p.s[p.pos] == ')' {
				p.pos++
				break
			}
			return exprNode{}, fmt.Errorf("expected ',' or ')' at %d in %q", p.pos, p.s)
		}
		return exprNode{kind: exprCall, call: call}, nil
	}
	return exprNode{}, fmt.Errorf("unrecognized token %q in expression %q", ident, p.s)
}

// evalNode evaluates a parsed expr node against the current document and
// execution context.
func evalNode(n exprNode, doc interface{}, ctx Document) (interface{}, error) {
	switch n.kind {
	case exprLiteral:
		return n.literal, nil
	case exprPath:
		v, found, err := selectPath(doc, ctx, n.path)
		if err != nil {
			return nil, &StateError{Name: ErrNameIntrinsicFailure, Cause: err.Error()}
		}
		if !found {
			return nil, &StateError{Name: ErrNameParameterPathFailure, Cause: "path not found: " + n.path}
		}
		return v, nil
	case exprCall:
		return evalIntrinsic(n.call, doc, ctx)
	default:
		return nil, fmt.Errorf("unknown expr kind")
	}
}

func evalIntrinsic(call *intrinsicCall, doc interface{}, ctx Document) (interface{}, error) {
	if v, ok := evalContextIntrinsic(call.name, ctx); ok {
		return v, nil
	}
	args := make([]interface{}, len(call.args))
	for i, a := range call.args {
		v, err := evalNode(a, doc, ctx)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	fn, ok := intrinsicTable[call.name]
	if !ok {
		return nil, &StateError{Name: ErrNameIntrinsicFailure, Cause: "unknown intrinsic: " + call.name}
	}
	v, err := fn(args)
	if err != nil {
		if se, ok := err.(*StateError); ok {
			return nil, se
		}
		return nil, &StateError{Name: ErrNameIntrinsicFailure, Cause: err.Error()}
	}
	return v, nil
}

type intrinsicFunc func(args []interface{}) (interface{}, error)

var intrinsicTable map[string]intrinsicFunc

func init() {
	intrinsicTable = map[string]intrinsicFunc{
		"States.Format":        intrFormat,
		"Format":                intrFormat,
		"States.StringToJson":  intrStringToJSON,
		"StringToJson":          intrStringToJSON,
		"States.JsonToString":  intrJSONToString,
		"JsonToString":          intrJSONToString,
		"States.Array":         intrArray,
		"Array":                 intrArray,
		"States.ArrayLength":   intrArrayLength,
		"ArrayLength":           intrArrayLength,
		"States.ArrayPartition": intrArrayPartition,
		"ArrayPartition":        intrArrayPartition,
		"States.ArrayContains": intrArrayContains,
		"ArrayContains":         intrArrayContains,
		"States.ArrayUnique":   intrArrayUnique,
		"ArrayUnique":           intrArrayUnique,
		"States.ArrayConcat":   intrArrayConcat,
		"ArrayConcat":           intrArrayConcat,
		"States.MathAdd":       intrMathAdd,
		"MathAdd":               intrMathAdd,
		"States.MathSubtract":  intrMathSubtract,
		"MathSubtract":          intrMathSubtract,
		"States.MathMultiply":  intrMathMultiply,
		"MathMultiply":          intrMathMultiply,
		"States.MathRandom":    intrMathRandom,
		"MathRandom":            intrMathRandom,
		"States.Hash":          intrHash,
		"Hash":                  intrHash,
		"States.Base64Encode":  intrBase64Encode,
		"Base64Encode":          intrBase64Encode,
		"States.Base64Decode":  intrBase64Decode,
		"Base64Decode":          intrBase64Decode,
		"States.UUID":          intrUUID,
		"UUID":                  intrUUID,
		"States.Merge":         intrMerge,
		"Merge":                 intrMerge,
		"States.Pick":          intrPick,
		"Pick":                  intrPick,
		"States.Omit":          intrOmit,
		"Omit":                  intrOmit,
		"States.TokenCount":    intrTokenCount,
		"TokenCount":            intrTokenCount,
		"States.Truncate":      intrTruncate,
		"Truncate":              intrTruncate,
	}
}

// evalContextIntrinsic answers CurrentCost/CurrentTokens from the live
// execution context rather than intrinsicTable, since their value comes
// from the run's Accountant (ctx["Execution"]) and not from call arguments.
func evalContextIntrinsic(name string, ctx Document) (interface{}, bool) {
	switch name {
	case "States.CurrentCost", "CurrentCost":
		exec, _ := asDocument(ctx["Execution"])
		cost, _ := exec["Cost"].(float64)
		return cost, true
	case "States.CurrentTokens", "CurrentTokens":
		exec, _ := asDocument(ctx["Execution"])
		tokens, _ := exec["TokensUsed"].(float64)
		return tokens, true
	default:
		return nil, false
	}
}

func intrFormat(args []interface{}) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("Format requires a format string")
	}
	format, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("Format's first argument must be a string")
	}
	var b strings.Builder
	argIdx := 1
	for i := 0; i < len(format); i++ {
		if format[i] == '{' && i+1 < len(format) && format[i+1] == '}' {
			if argIdx >= len(args) {
				return nil, fmt.Errorf("Format: not enough arguments for template %q", format)
			}
			b.WriteString(stringifyArg(args[argIdx]))
			argIdx++
			i++
			continue
		}
		b.WriteByte(format[i])
	}
	return b.String(), nil
}

func stringifyArg(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func intrStringToJSON(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("StringToJson takes exactly one argument")
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("StringToJson requires a string argument")
	}
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, &StateError{Name: ErrNameIntrinsicFailure, Cause: "StringToJson: " + err.Error()}
	}
	return normalizeJSON(v), nil
}

func intrJSONToString(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("JsonToString takes exactly one argument")
	}
	b, err := json.Marshal(args[0])
	if err != nil {
		return nil, fmt.Errorf("JsonToString: %w", err)
	}
	return string(b), nil
}

func intrArray(args []interface{}) (interface{}, error) {
	out := make([]interface{}, len(args))
	copy(out, args)
	return out, nil
}

func intrArrayLength(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("ArrayLength takes exactly one argument")
	}
	seq, ok := asSequence(args[0])
	if !ok {
		return nil, fmt.Errorf("ArrayLength requires an array argument")
	}
	return float64(len(seq)), nil
}

func intrArrayPartition(args []interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("ArrayPartition takes exactly two arguments")
	}
	seq, ok := asSequence(args[0])
	if !ok {
		return nil, fmt.Errorf("ArrayPartition requires an array as its first argument")
	}
	n, ok := asInt(args[1])
	if !ok || n <= 0 {
		return nil, fmt.Errorf("ArrayPartition requires a positive integer chunk size")
	}
	var chunks []interface{}
	for i := 0; i < len(seq); i += n {
		end := i + n
		if end > len(seq) {
			end = len(seq)
		}
		chunks = append(chunks, append([]interface{}{}, seq[i:end]...))
	}
	if chunks == nil {
		chunks = []interface{}{}
	}
	return chunks, nil
}

func intrArrayContains(args []interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("ArrayContains takes exactly two arguments")
	}
	seq, ok := asSequence(args[0])
	if !ok {
		return nil, fmt.Errorf("ArrayContains requires an array as its first argument")
	}
	for _, v := range seq {
		if deepEqual(v, args[1]) {
			return true, nil
		}
	}
	return false, nil
}

func intrArrayUnique(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("ArrayUnique takes exactly one argument")
	}
	seq, ok := asSequence(args[0])
	if !ok {
		return nil, fmt.Errorf("ArrayUnique requires an array argument")
	}
	var out []interface{}
	for _, v := range seq {
		dup := false
		for _, seen := range out {
			if deepEqual(v, seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	if out == nil {
		out = []interface{}{}
	}
	return out, nil
}

func intrArrayConcat(args []interface{}) (interface{}, error) {
	var out []interface{}
	for _, a := range args {
		seq, ok := asSequence(a)
		if !ok {
			return nil, fmt.Errorf("ArrayConcat requires all arguments to be arrays")
		}
		out = append(out, seq...)
	}
	if out == nil {
		out = []interface{}{}
	}
	return out, nil
}

func intrMathAdd(args []interface{}) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("MathAdd requires at least one argument")
	}
	sum := 0.0
	for _, a := range args {
		n, ok := asNumber(a)
		if !ok {
			return nil, fmt.Errorf("MathAdd: non-numeric argument %v", a)
		}
		sum += n
	}
	return sum, nil
}

func intrMathSubtract(args []interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("MathSubtract takes exactly two arguments")
	}
	x, ok1 := asNumber(args[0])
	y, ok2 := asNumber(args[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("MathSubtract requires numeric arguments")
	}
	return x - y, nil
}

func intrMathMultiply(args []interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("MathMultiply takes exactly two arguments")
	}
	x, ok1 := asNumber(args[0])
	y, ok2 := asNumber(args[1])
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("MathMultiply requires numeric arguments")
	}
	return x * y, nil
}

func intrMathRandom(args []interface{}) (interface{}, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("MathRandom takes no arguments")
	}
	return rand.Float64(), nil //nolint:gosec // States.MathRandom is a workflow convenience value, not a security primitive.
}

func intrHash(args []interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("Hash takes exactly two arguments")
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("Hash requires a string as its first argument")
	}
	algo, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("Hash requires a string algorithm name")
	}
	switch algo {
	case "sha256":
		sum := sha256.Sum256([]byte(s))
		return hex.EncodeToString(sum[:]), nil
	case "sha1":
		sum := sha1.Sum([]byte(s)) //nolint:gosec // spec-mandated algorithm choice.
		return hex.EncodeToString(sum[:]), nil
	case "md5":
		sum := md5.Sum([]byte(s)) //nolint:gosec // spec-mandated algorithm choice.
		return hex.EncodeToString(sum[:]), nil
	default:
		return nil, fmt.Errorf("Hash: unsupported algorithm %q", algo)
	}
}

func intrBase64Encode(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("Base64Encode takes exactly one argument")
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("Base64Encode requires a string argument")
	}
	return base64.StdEncoding.EncodeToString([]byte(s)), nil
}

func intrBase64Decode(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("Base64Decode takes exactly one argument")
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("Base64Decode requires a string argument")
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &StateError{Name: ErrNameIntrinsicFailure, Cause: "Base64Decode: " + err.Error()}
	}
	return string(b), nil
}

func intrUUID(args []interface{}) (interface{}, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("UUID takes no arguments")
	}
	return uuid.NewString(), nil
}

func intrMerge(args []interface{}) (interface{}, error) {
	out := Document{}
	for _, a := range args {
		d, ok := asDocument(a)
		if !ok {
			return nil, fmt.Errorf("Merge requires all arguments to be objects")
		}
		for k, v := range d {
			out[k] = v
		}
	}
	return out, nil
}

func intrPick(args []interface{}) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("Pick requires an object and zero or more keys")
	}
	d, ok := asDocument(args[0])
	if !ok {
		return nil, fmt.Errorf("Pick requires an object as its first argument")
	}
	out := Document{}
	for _, k := range args[1:] {
		key, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("Pick requires string key arguments")
		}
		if v, present := d[key]; present {
			out[key] = v
		}
	}
	return out, nil
}

func intrOmit(args []interface{}) (interface{}, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("Omit requires an object and zero or more keys")
	}
	d, ok := asDocument(args[0])
	if !ok {
		return nil, fmt.Errorf("Omit requires an object as its first argument")
	}
	drop := map[string]bool{}
	for _, k := range args[1:] {
		key, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("Omit requires string key arguments")
		}
		drop[key] = true
	}
	out := Document{}
	for k, v := range d {
		if !drop[k] {
			out[k] = v
		}
	}
	return out, nil
}

// intrTokenCount is a deterministic, implementation-defined heuristic:
// whitespace-delimited word count. Identical input always yields identical
// output, which is all §4.2 requires.
func intrTokenCount(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("TokenCount takes exactly one argument")
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("TokenCount requires a string argument")
	}
	n := len(strings.Fields(s))
	if n == 0 {
		n = 1
	}
	return float64(n), nil
}

func intrTruncate(args []interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("Truncate takes exactly two arguments")
	}
	s, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("Truncate requires a string as its first argument")
	}
	limit, ok := asInt(args[1])
	if !ok || limit < 0 {
		return nil, fmt.Errorf("Truncate requires a non-negative integer word limit")
	}
	words := strings.Fields(s)
	if len(words) <= limit {
		return s, nil
	}
	return strings.Join(words[:limit], " ") + "...", nil
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func asInt(v interface{}) (int, bool) {
	n, ok := asNumber(v)
	if !ok {
		return 0, false
	}
	return int(n), true
}
