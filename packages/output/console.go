package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/hitreq/packages/core/runner"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

// formatValue formats a value for display, summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	case map[string][]string:
		return fmt.Sprintf("{headers with %d entries}", len(val))
	case nil:
		return "<missing>"
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
	bold   *color.Color
	dim    *color.Color
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.green = color.New(color.FgGreen)
	f.red = color.New(color.FgRed)
	f.yellow = color.New(color.FgYellow)
	f.cyan = color.New(color.FgCyan)
	f.bold = color.New(color.Bold)
	f.dim = color.New(color.Faint)
	if f.noColor {
		for _, c := range []*color.Color{f.green, f.red, f.yellow, f.cyan, f.bold, f.dim} {
			c.DisableColor()
		}
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) error {
	w := f.writer
	fmt.Fprintf(w, "\n%s\n\n", f.bold.Sprint("Running: "+result.File))

	for _, r := range result.Results {
		if r.Skipped {
			fmt.Fprintf(w, "  %s %s", f.yellow.Sprint("-"), r.Name)
			if r.SkipReason != "" && r.SkipReason != "filtered out" {
				fmt.Fprintf(w, " (%s)", r.SkipReason)
			}
			fmt.Fprintln(w)
			continue
		}

		if r.Error != nil {
			fmt.Fprintf(w, "  %s %s %s\n", f.red.Sprint("x"), r.Name, f.red.Sprintf("(%v)", r.Error))
			continue
		}

		symbol := f.green.Sprint("✓")
		if !r.Passed {
			symbol = f.red.Sprint("✗")
		}
		fmt.Fprintf(w, "  %s %s %s\n", symbol, r.Name, f.cyan.Sprintf("(%dms)", r.Duration.Milliseconds()))

		if f.verbose && r.Response != nil {
			fmt.Fprintf(w, "    %s %s -> %d\n", r.Method, r.URL, r.Response.StatusCode)
		}
		if !r.Passed && len(r.Assertions) == 0 && r.Response != nil {
			fmt.Fprintf(w, "    %s status %d\n", f.red.Sprint("→"), r.Response.StatusCode)
		}

		for _, a := range r.Assertions {
			if a.Passed {
				continue
			}
			fmt.Fprintf(w, "    %s %s %s\n", f.red.Sprint("→"), a.Subject, a.Operator)
			fmt.Fprintf(w, "      Expected: %s\n", formatValue(a.Expected, 100))
			fmt.Fprintf(w, "      Actual:   %s\n", formatValue(a.Actual, 100))
			if a.Message != "" {
				fmt.Fprintf(w, "      %s\n", a.Message)
			}
		}

		if f.verbose && len(r.Captures) > 0 {
			fmt.Fprintf(w, "    Captures:\n")
			for _, name := range sortedNames(r.Captures) {
				fmt.Fprintf(w, "      %s = %s\n", name, formatValue(r.Captures[name], 100))
			}
		}
		for _, name := range r.Missing {
			fmt.Fprintf(w, "    %s capture %s found no value\n", f.yellow.Sprint("!"), name)
		}
	}

	fmt.Fprintf(w, "\nRequests: ")
	if result.Passed > 0 {
		fmt.Fprintf(w, "%s, ", f.green.Sprintf("%d passed", result.Passed))
	}
	if result.Failed > 0 {
		fmt.Fprintf(w, "%s, ", f.red.Sprintf("%d failed", result.Failed))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(w, "%s, ", f.yellow.Sprintf("%d skipped", result.Skipped))
	}
	fmt.Fprintf(w, "%d total\n", result.Passed+result.Failed+result.Skipped)
	fmt.Fprintf(w, "Time:     %dms\n\n", result.Duration.Milliseconds())
	return nil
}

// FormatResponse prints a single response: the status line, headers when
// verbose, then the body. Binary bodies are summarized.
func (f *ConsoleFormatter) FormatResponse(method, url string, resp *http.Response) {
	w := f.writer

	status := f.green
	switch {
	case resp.IsServerError(), resp.IsClientError():
		status = f.red
	case resp.IsRedirect():
		status = f.yellow
	}
	fmt.Fprintf(w, "%s %s %s %s\n",
		f.bold.Sprint(method), url,
		status.Sprintf("%d", resp.StatusCode),
		f.dim.Sprintf("(%dms)", resp.DurationMs()))

	if f.verbose {
		keys := make([]string, 0, len(resp.Headers))
		for k := range resp.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s: %s\n", f.cyan.Sprint(k), strings.Join(resp.Headers[k], ", "))
		}
		if resp.Jar != nil {
			for _, c := range resp.Jar.Cookies() {
				fmt.Fprintf(w, "%s %s=%s\n", f.dim.Sprint("cookie"), c.Name, c.Value)
			}
		}
	}
	fmt.Fprintln(w)

	if resp.Binary {
		fmt.Fprintf(w, "%s\n", f.dim.Sprintf("<%d bytes of binary data>", len(resp.Data)))
		return
	}
	if resp.Content != "" {
		fmt.Fprintln(w, resp.Content)
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	fmt.Fprintf(f.writer, "%s %v\n", f.red.Sprint("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	fmt.Fprintf(f.writer, "%s %s\n", f.bold.Sprint("hitreq"), version)
}

func sortedNames(m map[string]any) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
