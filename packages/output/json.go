package output

import (
	"io"
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/abdul-hamid-achik/hitreq/packages/core/runner"
)

// JSONOutput is the document written for one run.
type JSONOutput struct {
	File     string     `json:"file"`
	Summary  JSONCounts `json:"summary"`
	Requests []JSONTest `json:"requests"`
	Duration int64      `json:"durationMs"`
	Time     string     `json:"time"`
}

type JSONCounts struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type JSONTest struct {
	Name       string          `json:"name"`
	Method     string          `json:"method,omitempty"`
	URL        string          `json:"url,omitempty"`
	Passed     bool            `json:"passed"`
	Skipped    bool            `json:"skipped,omitempty"`
	SkipReason string          `json:"skipReason,omitempty"`
	Duration   int64           `json:"durationMs"`
	Error      string          `json:"error,omitempty"`
	Response   *JSONResponse   `json:"response,omitempty"`
	Assertions []JSONAssertion `json:"assertions,omitempty"`
	Captures   map[string]any  `json:"captures,omitempty"`
}

type JSONResponse struct {
	StatusCode int                 `json:"statusCode"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Cookies    map[string]string   `json:"cookies,omitempty"`
	Duration   int64               `json:"durationMs"`
}

type JSONAssertion struct {
	Subject  string `json:"subject"`
	Operator string `json:"operator"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
}

// JSONFormatter writes run results as indented JSON.
type JSONFormatter struct {
	writer io.Writer
	now    func() time.Time
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func WithJSONWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) error {
	out := JSONOutput{
		File: result.File,
		Summary: JSONCounts{
			Total:   len(result.Results),
			Passed:  result.Passed,
			Failed:  result.Failed,
			Skipped: result.Skipped,
		},
		Requests: make([]JSONTest, 0, len(result.Results)),
		Duration: result.Duration.Milliseconds(),
		Time:     f.now().Format(time.RFC3339),
	}

	for _, r := range result.Results {
		test := JSONTest{
			Name:     r.Name,
			Method:   r.Method,
			URL:      r.URL,
			Passed:   r.Passed,
			Skipped:  r.Skipped,
			Duration: r.Duration.Milliseconds(),
			Captures: r.Captures,
		}
		if r.SkipReason != "filtered out" {
			test.SkipReason = r.SkipReason
		}
		if r.Error != nil {
			test.Error = r.Error.Error()
		}

		if resp := r.Response; resp != nil {
			test.Response = &JSONResponse{
				StatusCode: resp.StatusCode,
				Headers:    resp.Headers,
				Duration:   resp.DurationMs(),
			}
			if resp.Jar != nil && resp.Jar.Len() > 0 {
				test.Response.Cookies = make(map[string]string)
				for _, c := range resp.Jar.Cookies() {
					test.Response.Cookies[c.Name] = c.Value
				}
			}
		}

		for _, a := range r.Assertions {
			test.Assertions = append(test.Assertions, JSONAssertion{
				Subject:  a.Subject,
				Operator: a.Operator,
				Expected: a.Expected,
				Actual:   a.Actual,
				Passed:   a.Passed,
				Message:  a.Message,
			})
		}

		out.Requests = append(out.Requests, test)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = f.writer.Write(data)
	return err
}
