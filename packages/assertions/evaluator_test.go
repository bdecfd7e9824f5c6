package assertions

import (
	nethttp "net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitreq/packages/cookiejar"
	"github.com/abdul-hamid-achik/hitreq/packages/core/env"
	"github.com/abdul-hamid-achik/hitreq/packages/core/parser"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

func createResponse(statusCode int, body string) *http.Response {
	jar := cookiejar.New()
	jar.Set("sid", "s-1")
	return &http.Response{
		StatusCode: statusCode,
		Headers: nethttp.Header{
			"Content-Type": {"application/json"},
			"X-Total":      {"3"},
		},
		Content:  body,
		Jar:      jar,
		Duration: 120 * time.Millisecond,
	}
}

const userBody = `{"id":7,"name":"Alice","email":"alice@example.com","tags":["admin","dev"],"items":[{"id":1},{"id":2}],"score":9.5,"active":true,"nothing":null}`

func TestEvaluator_Operators(t *testing.T) {
	e := NewEvaluator(createResponse(201, userBody))

	tests := []struct {
		name     string
		subject  string
		op       parser.AssertionOperator
		expected any
		pass     bool
	}{
		{"status equals", "status", parser.OpEquals, 201, true},
		{"status mismatch", "status", parser.OpEquals, 200, false},
		{"status not equals", "status", parser.OpNotEquals, 500, true},
		{"status in", "status", parser.OpIn, []any{200, 201}, true},
		{"status not in", "status", parser.OpNotIn, []any{200, 201}, false},
		{"numeric body equals int", "body.id", parser.OpEquals, 7, true},
		{"string equals", "body.name", parser.OpEquals, "Alice", true},
		{"greater than", "body.score", parser.OpGreaterThan, 9, true},
		{"less or equal", "body.score", parser.OpLessOrEqual, 9.5, true},
		{"non numeric compare", "body.name", parser.OpGreaterThan, 1, false},
		{"contains", "body.email", parser.OpContains, "@example", true},
		{"not contains", "body.email", parser.OpNotContains, "@example", false},
		{"starts with", "body.name", parser.OpStartsWith, "Al", true},
		{"ends with", "body.email", parser.OpEndsWith, ".com", true},
		{"matches", "body.email", parser.OpMatches, "/^[a-z]+@/", true},
		{"bad regex", "body.email", parser.OpMatches, "(", false},
		{"exists", "body.id", parser.OpExists, nil, true},
		{"missing exists", "body.missing", parser.OpExists, nil, false},
		{"not exists", "body.missing", parser.OpNotExists, nil, true},
		{"length array", "body.tags", parser.OpLength, 2, true},
		{"length string", "body.name", parser.OpLength, 5, true},
		{"includes", "body.tags", parser.OpIncludes, "dev", true},
		{"not includes", "body.tags", parser.OpNotIncludes, "ops", true},
		{"type array", "body.tags", parser.OpType, "array", true},
		{"type boolean", "body.active", parser.OpType, "boolean", true},
		{"type object", "body.items.0", parser.OpType, "object", true},
		{"bracket notation", "body.items[1].id", parser.OpEquals, 2, true},
		{"jsonpath", "jsonpath items.0.id", parser.OpEquals, 1, true},
		{"bare path", "name", parser.OpEquals, "Alice", true},
		{"each", "body.items", parser.OpEach, map[string]any{"operator": "exists", "value": true}, true},
		{"header", "header Content-Type", parser.OpContains, "json", true},
		{"header case", "header x-total", parser.OpEquals, 3, true},
		{"missing header", "header X-None", parser.OpNotExists, nil, true},
		{"cookie", "cookie sid", parser.OpEquals, "s-1", true},
		{"missing cookie", "cookie other", parser.OpExists, nil, false},
		{"duration", "duration", parser.OpLessThan, 500, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := e.Evaluate(&parser.Assertion{Subject: tt.subject, Operator: tt.op, Expected: tt.expected})
			assert.Equal(t, tt.pass, result.Passed, result.Message)
			if !tt.pass {
				assert.NotEmpty(t, result.Message)
			}
		})
	}
}

func TestEvaluator_LengthReportsComputedLength(t *testing.T) {
	e := NewEvaluator(createResponse(200, userBody))
	result := e.Evaluate(&parser.Assertion{Subject: "body.tags", Operator: parser.OpLength, Expected: 3})
	assert.False(t, result.Passed)
	assert.Equal(t, 2, result.Actual)
	assert.Equal(t, "expected length 3, got 2", result.Message)
}

func TestEvaluator_TextBody(t *testing.T) {
	resp := createResponse(200, "hello world")
	resp.Headers.Set("Content-Type", "text/plain")
	e := NewEvaluator(resp)

	result := e.Evaluate(&parser.Assertion{Subject: "body", Operator: parser.OpContains, Expected: "world"})
	assert.True(t, result.Passed)

	result = e.Evaluate(&parser.Assertion{Subject: "jsonpath id", Operator: parser.OpExists})
	assert.False(t, result.Passed)
	assert.Equal(t, "response body is not JSON", result.Message)
}

func TestEvaluator_ResolvesExpected(t *testing.T) {
	r := env.NewResolver()
	r.SetVariable("user", "Alice")
	e := NewEvaluator(createResponse(200, userBody), WithResolver(r))

	result := e.Evaluate(&parser.Assertion{Subject: "body.name", Operator: parser.OpEquals, Expected: "{{user}}"})
	assert.True(t, result.Passed, result.Message)
	assert.Equal(t, "Alice", result.Expected)
}

func TestEvaluator_Schema(t *testing.T) {
	dir := t.TempDir()
	schema := `{"type":"object","required":["id","name"],"properties":{"id":{"type":"integer"},"name":{"type":"string"}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user.json"), []byte(schema), 0o644))

	e := NewEvaluator(createResponse(200, userBody), WithBaseDir(dir))
	result := e.Evaluate(&parser.Assertion{Subject: "body", Operator: parser.OpSchema, Expected: "user.json"})
	assert.True(t, result.Passed, result.Message)

	e = NewEvaluator(createResponse(200, `{"id":"seven"}`), WithBaseDir(dir))
	result = e.Evaluate(&parser.Assertion{Subject: "body", Operator: parser.OpSchema, Expected: "user.json"})
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "schema validation failed")

	result = e.Evaluate(&parser.Assertion{Subject: "body", Operator: parser.OpSchema, Expected: "../outside.json"})
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "path traversal")
}

func TestEvaluateAll(t *testing.T) {
	results := EvaluateAll(createResponse(200, userBody), []*parser.Assertion{
		{Subject: "status", Operator: parser.OpEquals, Expected: 200},
		{Subject: "body.id", Operator: parser.OpEquals, Expected: 8},
		{Subject: "body.name", Operator: parser.OpExists},
	})
	require.Len(t, results, 3)

	failed := Failed(results)
	require.Len(t, failed, 1)
	assert.Equal(t, "body.id", failed[0].Subject)
	assert.Equal(t, "==", failed[0].Operator)
}

func TestValidatePathWithinBase(t *testing.T) {
	base := t.TempDir()
	assert.NoError(t, validatePathWithinBase(filepath.Join(base, "a.json"), base))
	assert.NoError(t, validatePathWithinBase("anything", ""))
	assert.Error(t, validatePathWithinBase(filepath.Join(base, "..", "x.json"), base))
}

func TestEvaluator_SchemaReloadsChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "id.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"properties":{"id":{"type":"integer"}}}`), 0o644))

	e := NewEvaluator(createResponse(200, userBody), WithBaseDir(dir))
	a := &parser.Assertion{Subject: "body", Operator: parser.OpSchema, Expected: "id.json"}
	assert.True(t, e.Evaluate(a).Passed)

	require.NoError(t, os.WriteFile(path, []byte(`{"properties":{"id":{"type":"string"}}}`), 0o644))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	result := e.Evaluate(a)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "schema validation failed")
}

func TestEvaluator_Each(t *testing.T) {
	e := NewEvaluator(createResponse(200, `{"ids":[2,4,6],"empty":[],"tags":["a","a"]}`))

	tests := []struct {
		name     string
		subject  string
		expected any
		pass     bool
		message  string
	}{
		{"symbol operator", "body.ids", map[string]any{"operator": ">", "value": 1}, true, ""},
		{"alias operator", "body.ids", map[string]any{"operator": "notEquals", "value": 3}, true, ""},
		{"failing item", "body.ids", map[string]any{"operator": "<", "value": 5}, false, "item[2]: expected 6 < 5"},
		{"plain value", "body.tags", "a", true, ""},
		{"empty array", "body.empty", "anything", true, ""},
		{"unknown operator", "body.ids", map[string]any{"operator": "near", "value": 1}, false, "unknown operator in each: near"},
		{"not an array", "body.ids.0", 2, false, "expected array for 'each' operator, got float64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := e.Evaluate(&parser.Assertion{Subject: tt.subject, Operator: parser.OpEach, Expected: tt.expected})
			assert.Equal(t, tt.pass, result.Passed, result.Message)
			if tt.message != "" {
				assert.Equal(t, tt.message, result.Message)
			}
		})
	}
}
