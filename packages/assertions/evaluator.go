package assertions

import (
	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/hitreq/packages/core/env"
	"github.com/abdul-hamid-achik/hitreq/packages/core/parser"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

// Result is the outcome of one assertion against one response.
type Result struct {
	Passed   bool
	Message  string
	Expected any
	Actual   any
	Subject  string
	Operator string
}

// Evaluator checks assertions against a single response. The body is parsed
// once and shared by every assertion.
type Evaluator struct {
	response *http.Response
	body     gjson.Result
	isJSON   bool
	baseDir  string
	resolver *env.Resolver
	schemas  *schemaCache
}

// EvaluatorOption is a functional option for configuring an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithBaseDir sets the directory schema files are resolved against.
func WithBaseDir(dir string) EvaluatorOption {
	return func(e *Evaluator) {
		e.baseDir = dir
	}
}

// WithResolver substitutes {{...}} expressions in expected values.
func WithResolver(r *env.Resolver) EvaluatorOption {
	return func(e *Evaluator) {
		e.resolver = r
	}
}

func NewEvaluator(resp *http.Response, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{response: resp, schemas: defaultSchemas}
	if raw := resp.Body(); resp.IsJSON() || gjson.ValidBytes(raw) {
		e.body = gjson.ParseBytes(raw)
		e.isJSON = e.body.Exists()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) Evaluate(a *parser.Assertion) *Result {
	expected := a.Expected
	if e.resolver != nil {
		expected = e.resolver.ResolveValue(expected)
	}
	res := &Result{
		Subject:  a.Subject,
		Operator: a.Operator.String(),
		Expected: expected,
	}

	actual, err := e.lookup(a.Subject)
	if err != nil {
		res.Message = err.Error()
		return res
	}
	res.Actual = actual
	res.Passed, res.Message = e.check(a.Operator, actual, expected)

	if a.Operator == parser.OpLength {
		res.Actual = lengthOf(actual)
	}
	return res
}

// EvaluateAll runs every assertion against resp in order.
func EvaluateAll(resp *http.Response, list []*parser.Assertion, opts ...EvaluatorOption) []*Result {
	e := NewEvaluator(resp, opts...)
	out := make([]*Result, 0, len(list))
	for _, a := range list {
		out = append(out, e.Evaluate(a))
	}
	return out
}

// Failed returns the results that did not pass.
func Failed(results []*Result) []*Result {
	var out []*Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
