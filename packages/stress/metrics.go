package stress

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const maxLatencyUs = 60_000_000

// Metrics collects bench results. It is safe for concurrent use.
type Metrics struct {
	mu sync.Mutex

	totalRequests   atomic.Int64
	successRequests atomic.Int64
	errorRequests   atomic.Int64
	timeoutRequests atomic.Int64

	// latencies in microseconds, 1us to 60s, 3 significant digits
	histogram *hdrhistogram.Histogram
	statuses  map[int]int64

	startTime time.Time
	endTime   time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		histogram: hdrhistogram.New(1, maxLatencyUs, 3),
		statuses:  make(map[int]int64),
	}
}

// Start marks the beginning of the run.
func (m *Metrics) Start() {
	m.startTime = time.Now()
}

// Stop marks the end of the run.
func (m *Metrics) Stop() {
	m.endTime = time.Now()
}

// Record records one completed exchange. status is 0 when no response was
// read. A request counts as an error when err is set or status >= 400.
func (m *Metrics) Record(duration time.Duration, status int, err error) {
	m.totalRequests.Add(1)
	if err != nil || status >= 400 {
		m.errorRequests.Add(1)
	} else {
		m.successRequests.Add(1)
	}

	latencyUs := duration.Microseconds()
	if latencyUs < 1 {
		latencyUs = 1
	}
	if latencyUs > maxLatencyUs {
		latencyUs = maxLatencyUs
	}

	m.mu.Lock()
	_ = m.histogram.RecordValue(latencyUs)
	m.statuses[status]++
	m.mu.Unlock()
}

// RecordTimeout records a request that hit its deadline.
func (m *Metrics) RecordTimeout() {
	m.totalRequests.Add(1)
	m.timeoutRequests.Add(1)
	m.errorRequests.Add(1)
}

// Summary is the final report of a run.
type Summary struct {
	Duration      time.Duration
	TotalRequests int64
	SuccessCount  int64
	ErrorCount    int64
	TimeoutCount  int64

	RPS         float64
	SuccessRate float64
	ErrorRate   float64

	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Min    time.Duration
	Max    time.Duration
	Mean   time.Duration
	StdDev time.Duration

	// StatusCounts maps status codes to counts; 0 collects transport errors.
	StatusCounts map[int]int64
}

// Statuses returns the recorded status codes in ascending order.
func (s *Summary) Statuses() []int {
	out := make([]int, 0, len(s.StatusCounts))
	for code := range s.StatusCounts {
		out = append(out, code)
	}
	sort.Ints(out)
	return out
}

func (m *Metrics) GetSummary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.endTime.Sub(m.startTime)
	if m.endTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	total := m.totalRequests.Load()
	success := m.successRequests.Load()
	errors := m.errorRequests.Load()

	summary := &Summary{
		Duration:      duration,
		TotalRequests: total,
		SuccessCount:  success,
		ErrorCount:    errors,
		TimeoutCount:  m.timeoutRequests.Load(),
		P50:           usToDuration(m.histogram.ValueAtQuantile(50)),
		P95:           usToDuration(m.histogram.ValueAtQuantile(95)),
		P99:           usToDuration(m.histogram.ValueAtQuantile(99)),
		Min:           usToDuration(m.histogram.Min()),
		Max:           usToDuration(m.histogram.Max()),
		Mean:          time.Duration(m.histogram.Mean()) * time.Microsecond,
		StdDev:        time.Duration(m.histogram.StdDev()) * time.Microsecond,
		StatusCounts:  make(map[int]int64, len(m.statuses)),
	}
	if duration.Seconds() > 0 {
		summary.RPS = float64(total) / duration.Seconds()
	}
	if total > 0 {
		summary.SuccessRate = float64(success) / float64(total)
		summary.ErrorRate = float64(errors) / float64(total)
	}
	for code, n := range m.statuses {
		summary.StatusCounts[code] = n
	}
	return summary
}

func usToDuration(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}

// EvaluateThresholds checks s against t. Unset thresholds are skipped.
func (s *Summary) EvaluateThresholds(t Thresholds) []ThresholdResult {
	var results []ThresholdResult

	latency := func(name string, limit, actual time.Duration) {
		if limit > 0 {
			results = append(results, ThresholdResult{
				Name:     name,
				Passed:   actual <= limit,
				Expected: "<= " + limit.String(),
				Actual:   actual.String(),
			})
		}
	}
	latency("p50", t.P50, s.P50)
	latency("p95", t.P95, s.P95)
	latency("p99", t.P99, s.P99)
	latency("max latency", t.MaxLatency, s.Max)

	if t.ErrorRate > 0 {
		results = append(results, ThresholdResult{
			Name:     "error rate",
			Passed:   s.ErrorRate <= t.ErrorRate,
			Expected: "<= " + formatPercent(t.ErrorRate),
			Actual:   formatPercent(s.ErrorRate),
		})
	}
	if t.MinRPS > 0 {
		results = append(results, ThresholdResult{
			Name:     "min RPS",
			Passed:   s.RPS >= t.MinRPS,
			Expected: ">= " + formatFloat(t.MinRPS),
			Actual:   formatFloat(s.RPS),
		})
	}
	return results
}

func formatPercent(f float64) string {
	return formatFloat(f*100) + "%"
}

func formatFloat(f float64) string {
	if f == float64(int(f)) {
		return strconv.Itoa(int(f))
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
