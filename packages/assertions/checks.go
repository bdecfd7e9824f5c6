package assertions

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/hitreq/packages/core/parser"
)

// checkFunc reports whether actual satisfies expected and, when it does
// not, why.
type checkFunc func(e *Evaluator, actual, expected any) (bool, string)

var checks map[parser.AssertionOperator]checkFunc

// negated maps each !operator to the check it inverts and the failure text
// used when that check passes.
var negated = map[parser.AssertionOperator]struct {
	of  parser.AssertionOperator
	msg string
}{
	parser.OpNotEquals:   {parser.OpEquals, "expected not to equal %v"},
	parser.OpNotContains: {parser.OpContains, "expected not to contain %v"},
	parser.OpNotExists:   {parser.OpExists, "expected not to exist"},
	parser.OpNotIncludes: {parser.OpIncludes, "expected not to include %v"},
	parser.OpNotIn:       {parser.OpIn, "expected not to be in %v"},
}

// each accepts a few spelled-out aliases alongside the operator symbols.
var eachAliases = map[string]string{
	"equals":    "==",
	"notEquals": "!=",
}

func init() {
	checks = map[parser.AssertionOperator]checkFunc{
		parser.OpEquals:         checkEquals,
		parser.OpGreaterThan:    numeric(">", func(a, b float64) bool { return a > b }),
		parser.OpGreaterOrEqual: numeric(">=", func(a, b float64) bool { return a >= b }),
		parser.OpLessThan:       numeric("<", func(a, b float64) bool { return a < b }),
		parser.OpLessOrEqual:    numeric("<=", func(a, b float64) bool { return a <= b }),
		parser.OpContains:       text("to contain", strings.Contains),
		parser.OpStartsWith:     text("to start with", strings.HasPrefix),
		parser.OpEndsWith:       text("to end with", strings.HasSuffix),
		parser.OpMatches:        checkMatches,
		parser.OpExists:         checkExists,
		parser.OpLength:         checkLength,
		parser.OpIncludes:       checkIncludes,
		parser.OpIn:             checkIn,
		parser.OpType:           checkType,
		parser.OpSchema:         (*Evaluator).checkSchema,
		parser.OpEach:           checkEach,
	}
}

func (e *Evaluator) check(op parser.AssertionOperator, actual, expected any) (bool, string) {
	if n, ok := negated[op]; ok {
		if ok, _ := e.check(n.of, actual, expected); ok {
			if strings.Contains(n.msg, "%v") {
				return false, fmt.Sprintf(n.msg, expected)
			}
			return false, n.msg
		}
		return true, ""
	}
	fn, ok := checks[op]
	if !ok {
		return false, fmt.Sprintf("unknown operator: %v", op)
	}
	return fn(e, actual, expected)
}

func checkEquals(_ *Evaluator, actual, expected any) (bool, string) {
	if equal(actual, expected) {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v, got %v", expected, actual)
}

// equal compares loosely: JSON numbers match Go ints and both match their
// string form, so status == "200" and body.id == 7 pass.
func equal(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	if x, ok := toFloat64(a); ok {
		if y, ok := toFloat64(b); ok {
			return x == y
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func numeric(sym string, cmp func(a, b float64) bool) checkFunc {
	return func(_ *Evaluator, actual, expected any) (bool, string) {
		a, aok := toFloat64(actual)
		b, bok := toFloat64(expected)
		if !aok || !bok {
			return false, fmt.Sprintf("cannot compare non-numeric values: %v %s %v", actual, sym, expected)
		}
		if cmp(a, b) {
			return true, ""
		}
		return false, fmt.Sprintf("expected %v %s %v", actual, sym, expected)
	}
}

func text(verb string, fn func(s, sub string) bool) checkFunc {
	return func(_ *Evaluator, actual, expected any) (bool, string) {
		if fn(fmt.Sprint(actual), fmt.Sprint(expected)) {
			return true, ""
		}
		return false, fmt.Sprintf("expected '%v' %s '%v'", actual, verb, expected)
	}
}

// checkMatches accepts the pattern with or without /slashes/.
func checkMatches(_ *Evaluator, actual, expected any) (bool, string) {
	pattern := strings.TrimSuffix(strings.TrimPrefix(fmt.Sprint(expected), "/"), "/")
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid regex pattern: %v", err)
	}
	if re.MatchString(fmt.Sprint(actual)) {
		return true, ""
	}
	return false, fmt.Sprintf("expected '%v' to match /%s/", actual, pattern)
}

func checkExists(_ *Evaluator, actual, _ any) (bool, string) {
	if actual == nil {
		return false, "expected to exist"
	}
	return true, ""
}

// lengthOf returns -1 for values without a length.
func lengthOf(v any) int {
	if v == nil {
		return -1
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len()
	}
	return -1
}

func checkLength(_ *Evaluator, actual, expected any) (bool, string) {
	want, ok := toInt(expected)
	if !ok {
		return false, fmt.Sprintf("expected length must be a number, got %v", expected)
	}
	got := lengthOf(actual)
	switch {
	case got < 0:
		return false, fmt.Sprintf("cannot get length of %T", actual)
	case got != want:
		return false, fmt.Sprintf("expected length %d, got %d", want, got)
	}
	return true, ""
}

func checkIncludes(_ *Evaluator, actual, expected any) (bool, string) {
	list, ok := actual.([]any)
	if !ok {
		return false, fmt.Sprintf("expected array, got %T", actual)
	}
	if anyEqual(list, expected) {
		return true, ""
	}
	return false, fmt.Sprintf("expected array to include %v", expected)
}

func checkIn(_ *Evaluator, actual, expected any) (bool, string) {
	list, ok := expected.([]any)
	if !ok {
		return false, fmt.Sprintf("expected array for 'in' operator, got %T", expected)
	}
	if anyEqual(list, actual) {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v to be in %v", actual, expected)
}

func anyEqual(list []any, v any) bool {
	for _, item := range list {
		if equal(item, v) {
			return true
		}
	}
	return false
}

// typeName names v the way JSON Schema does.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return reflect.TypeOf(v).String()
}

func checkType(_ *Evaluator, actual, expected any) (bool, string) {
	want, got := fmt.Sprint(expected), typeName(actual)
	if want == got {
		return true, ""
	}
	return false, fmt.Sprintf("expected type %s, got %s", want, got)
}

// checkEach applies an operator to every element of an array. expected is
// either {operator, value} or a plain value every element must equal. An
// empty array passes.
func checkEach(e *Evaluator, actual, expected any) (bool, string) {
	list, ok := actual.([]any)
	if !ok {
		return false, fmt.Sprintf("expected array for 'each' operator, got %T", actual)
	}

	op, want := parser.OpEquals, expected
	if m, isMap := expected.(map[string]any); isMap {
		rawOp, hasOp := m["operator"]
		val, hasVal := m["value"]
		if hasOp && hasVal {
			name := fmt.Sprint(rawOp)
			if alias, ok := eachAliases[name]; ok {
				name = alias
			}
			parsed, ok := parser.ParseOperator(name)
			if !ok || parsed == parser.OpEach || parsed == parser.OpSchema {
				return false, fmt.Sprintf("unknown operator in each: %s", name)
			}
			op, want = parsed, val
		}
	}

	for i, item := range list {
		if ok, msg := e.check(op, item, want); !ok {
			return false, fmt.Sprintf("item[%d]: %s", i, msg)
		}
	}
	return true, ""
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	if s, ok := v.(string); ok {
		i, err := strconv.Atoi(s)
		return i, err == nil
	}
	f, ok := toFloat64(v)
	return int(f), ok
}
