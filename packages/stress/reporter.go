package stress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"
)

// Reporter handles output for bench runs.
type Reporter struct {
	writer     io.Writer
	noColor    bool
	noProgress bool

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
	bold   *color.Color
}

// ReporterOption configures the reporter.
type ReporterOption func(*Reporter)

// WithWriter sets the output writer.
func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) {
		r.writer = w
	}
}

// WithNoColor disables colored output.
func WithNoColor(noColor bool) ReporterOption {
	return func(r *Reporter) {
		r.noColor = noColor
	}
}

// WithNoProgress disables the progress line.
func WithNoProgress(noProgress bool) ReporterOption {
	return func(r *Reporter) {
		r.noProgress = noProgress
	}
}

func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.green = color.New(color.FgGreen)
	r.red = color.New(color.FgRed)
	r.yellow = color.New(color.FgYellow)
	r.cyan = color.New(color.FgCyan)
	r.bold = color.New(color.Bold)
	if r.noColor {
		for _, c := range []*color.Color{r.green, r.red, r.yellow, r.cyan, r.bold} {
			c.DisableColor()
		}
	}
	return r
}

// Header prints what is about to run.
func (r *Reporter) Header(target string, config *Config) {
	fmt.Fprintln(r.writer)
	r.cyan.Fprintf(r.writer, "Benchmarking: %s\n", target)

	details := []string{fmt.Sprintf("Requests: %d", config.Requests)}
	if config.Rate > 0 {
		details = append(details, fmt.Sprintf("Rate: %s req/s", formatFloat(config.Rate)))
	} else {
		details = append(details, "Rate: unpaced")
	}
	details = append(details, fmt.Sprintf("Concurrency: %d", config.Concurrency))
	if config.Duration > 0 {
		details = append(details, fmt.Sprintf("Max duration: %s", formatDuration(config.Duration)))
	}
	fmt.Fprintln(r.writer, strings.Join(details, " | "))
	fmt.Fprintln(r.writer)
}

// Progress rewrites the progress line in place.
func (r *Reporter) Progress(done, total int64) {
	if r.noProgress || total <= 0 {
		return
	}
	const barWidth = 30
	filled := int(float64(done) / float64(total) * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)
	fmt.Fprintf(r.writer, "\r\033[K%s %s/%s", bar, formatNumber(done), formatNumber(total))
}

// ClearProgress erases the progress line.
func (r *Reporter) ClearProgress() {
	if r.noProgress {
		return
	}
	fmt.Fprint(r.writer, "\r\033[K")
}

// Summary prints the final summary.
func (r *Reporter) Summary(summary *Summary, thresholdResults []ThresholdResult) {
	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "BENCH SUMMARY")
	fmt.Fprintln(r.writer, strings.Repeat("─", 40))

	fmt.Fprintf(r.writer, "Duration:   %s\n", formatDuration(summary.Duration))
	fmt.Fprintf(r.writer, "Total:      ")
	r.bold.Fprintf(r.writer, "%s", formatNumber(summary.TotalRequests))
	fmt.Fprintf(r.writer, " requests (%.1f req/s)\n", summary.RPS)

	fmt.Fprintf(r.writer, "Success:    ")
	r.green.Fprintf(r.writer, "%s", formatNumber(summary.SuccessCount))
	fmt.Fprintf(r.writer, " (%.1f%%)\n", summary.SuccessRate*100)

	fmt.Fprintf(r.writer, "Failed:     ")
	if summary.ErrorCount > 0 {
		r.red.Fprintf(r.writer, "%s", formatNumber(summary.ErrorCount))
	} else {
		fmt.Fprintf(r.writer, "%s", formatNumber(summary.ErrorCount))
	}
	fmt.Fprintf(r.writer, " (%.1f%%)\n", summary.ErrorRate*100)

	if summary.TimeoutCount > 0 {
		fmt.Fprintf(r.writer, "Timeouts:   ")
		r.yellow.Fprintf(r.writer, "%s\n", formatNumber(summary.TimeoutCount))
	}

	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "LATENCY (ms)")
	fmt.Fprintf(r.writer, "  p50: %-6s | p95: %-6s | p99: %-6s | max: %s\n",
		formatLatencyMs(summary.P50),
		formatLatencyMs(summary.P95),
		formatLatencyMs(summary.P99),
		formatLatencyMs(summary.Max))
	fmt.Fprintf(r.writer, "  min: %-6s | mean: %-5s | stddev: %s\n",
		formatLatencyMs(summary.Min),
		formatLatencyMs(summary.Mean),
		formatLatencyMs(summary.StdDev))

	if len(summary.StatusCounts) > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "STATUS CODES")
		for _, code := range summary.Statuses() {
			label := fmt.Sprintf("%d", code)
			if code == 0 {
				label = "err"
			}
			c := r.green
			if code == 0 || code >= 400 {
				c = r.red
			}
			fmt.Fprint(r.writer, "  ")
			c.Fprintf(r.writer, "%-4s", label)
			fmt.Fprintf(r.writer, " %s\n", formatNumber(summary.StatusCounts[code]))
		}
	}

	if len(thresholdResults) > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "THRESHOLDS")
		for _, tr := range thresholdResults {
			if tr.Passed {
				r.green.Fprintf(r.writer, "  ✓ ")
			} else {
				r.red.Fprintf(r.writer, "  ✗ ")
			}
			fmt.Fprintf(r.writer, "%s %s    (actual: %s)\n", tr.Name, tr.Expected, tr.Actual)
		}
	}
	fmt.Fprintln(r.writer)
}

type jsonSummary struct {
	Duration   string            `json:"duration"`
	Requests   jsonRequests      `json:"requests"`
	RPS        float64           `json:"rps"`
	ErrorRate  float64           `json:"errorRate"`
	LatencyMs  map[string]int64  `json:"latencyMs"`
	Statuses   map[string]int64  `json:"statuses"`
	Thresholds []ThresholdResult `json:"thresholds,omitempty"`
}

type jsonRequests struct {
	Total    int64 `json:"total"`
	Success  int64 `json:"success"`
	Failed   int64 `json:"failed"`
	Timeouts int64 `json:"timeouts"`
}

// JSONSummary writes the summary as indented JSON.
func (r *Reporter) JSONSummary(summary *Summary, thresholdResults []ThresholdResult) error {
	out := jsonSummary{
		Duration: summary.Duration.String(),
		Requests: jsonRequests{
			Total:    summary.TotalRequests,
			Success:  summary.SuccessCount,
			Failed:   summary.ErrorCount,
			Timeouts: summary.TimeoutCount,
		},
		RPS:       summary.RPS,
		ErrorRate: summary.ErrorRate,
		LatencyMs: map[string]int64{
			"p50":    summary.P50.Milliseconds(),
			"p95":    summary.P95.Milliseconds(),
			"p99":    summary.P99.Milliseconds(),
			"min":    summary.Min.Milliseconds(),
			"max":    summary.Max.Milliseconds(),
			"mean":   summary.Mean.Milliseconds(),
			"stddev": summary.StdDev.Milliseconds(),
		},
		Statuses:   make(map[string]int64, len(summary.StatusCounts)),
		Thresholds: thresholdResults,
	}
	for code, n := range summary.StatusCounts {
		out.Statuses[fmt.Sprintf("%d", code)] = n
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(r.writer, string(data))
	return err
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %02ds", minutes, seconds)
}

func formatLatencyMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000
	if ms < 1 {
		return fmt.Sprintf("%.2f", ms)
	}
	if ms < 10 {
		return fmt.Sprintf("%.1f", ms)
	}
	return fmt.Sprintf("%.0f", ms)
}

// formatNumber formats a number with thousands separators.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if n < 1000 {
		return s
	}

	start := len(s) % 3
	if start == 0 {
		start = 3
	}
	var b strings.Builder
	b.WriteString(s[:start])
	for i := start; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
