package output

import (
	"bytes"
	"errors"
	nethttp "net/http"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitreq/packages/assertions"
	"github.com/abdul-hamid-achik/hitreq/packages/cookiejar"
	"github.com/abdul-hamid-achik/hitreq/packages/core/runner"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

func sampleResult() *runner.RunResult {
	jar := cookiejar.New()
	jar.Set("sid", "s-1")
	ok := &http.Response{
		StatusCode: 200,
		Headers:    nethttp.Header{"Content-Type": {"application/json"}},
		Content:    `{"id":1}`,
		Jar:        jar,
		Duration:   15 * time.Millisecond,
	}
	return &runner.RunResult{
		File: "api.yaml",
		Results: []*runner.RequestResult{
			{Name: "login", Method: "POST", URL: "http://x/login", Passed: true, Duration: 15 * time.Millisecond, Response: ok, Captures: map[string]any{"token": "t"}},
			{Name: "profile", Method: "GET", URL: "http://x/me", Response: ok, Assertions: []*assertions.Result{
				{Subject: "body.id", Operator: "==", Expected: 2, Actual: float64(1), Message: "expected 2, got 1"},
			}},
			{Name: "down", Error: errors.New("connection refused")},
			{Name: "later", Skipped: true, SkipReason: "previous request failed"},
		},
		Passed:   1,
		Failed:   2,
		Skipped:  1,
		Duration: 40 * time.Millisecond,
	}
}

func TestConsoleFormatter_FormatResult(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))
	require.NoError(t, f.FormatResult(sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "Running: api.yaml")
	assert.Contains(t, out, "✓ login (15ms)")
	assert.Contains(t, out, "token = t")
	assert.Contains(t, out, "✗ profile")
	assert.Contains(t, out, "Expected: 2")
	assert.Contains(t, out, "expected 2, got 1")
	assert.Contains(t, out, "x down (connection refused)")
	assert.Contains(t, out, "- later (previous request failed)")
	assert.Contains(t, out, "1 passed, 2 failed, 1 skipped, 4 total")
}

func TestConsoleFormatter_FormatResponse(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))

	jar := cookiejar.New()
	jar.Set("sid", "s-1")
	f.FormatResponse("GET", "http://x/a", &http.Response{
		StatusCode: 404,
		Headers:    nethttp.Header{"X-B": {"2"}, "X-A": {"1"}},
		Content:    "not found",
		Jar:        jar,
	})
	out := buf.String()
	assert.Contains(t, out, "GET http://x/a 404")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("X-A: 1")), bytes.Index(buf.Bytes(), []byte("X-B: 2")))
	assert.Contains(t, out, "cookie sid=s-1")
	assert.Contains(t, out, "not found")

	buf.Reset()
	f.FormatResponse("GET", "http://x/img", &http.Response{StatusCode: 200, Binary: true, Data: make([]byte, 12)})
	assert.Contains(t, buf.String(), "<12 bytes of binary data>")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(WithJSONWriter(&buf))
	require.NoError(t, f.FormatResult(sampleResult()))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "api.yaml", out.File)
	assert.Equal(t, JSONCounts{Total: 4, Passed: 1, Failed: 2, Skipped: 1}, out.Summary)
	require.Len(t, out.Requests, 4)
	assert.Equal(t, "s-1", out.Requests[0].Response.Cookies["sid"])
	assert.Equal(t, "expected 2, got 1", out.Requests[1].Assertions[0].Message)
	assert.Equal(t, "connection refused", out.Requests[2].Error)
	assert.Equal(t, "previous request failed", out.Requests[3].SkipReason)
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	f, err := New("console", &buf, false, false)
	require.NoError(t, err)
	assert.IsType(t, &ConsoleFormatter{}, f)
	assert.True(t, f.(*ConsoleFormatter).noColor, "non-terminal writers are not colored")

	f, err = New("json", &buf, false, false)
	require.NoError(t, err)
	assert.IsType(t, &JSONFormatter{}, f)

	_, err = New("xml", &buf, false, false)
	assert.Error(t, err)
	assert.False(t, IsTerminal(&buf))
}
