// Package stress repeats one request under a rate limit with bounded
// concurrency and summarizes latency with an HDR histogram.
package stress

import (
	"fmt"
	"time"
)

// Config holds the settings of one bench run.
type Config struct {
	Requests    int           // total requests to send
	Rate        float64       // requests per second, 0 means unpaced
	Concurrency int           // requests in flight at once
	Duration    time.Duration // optional wall-clock cap, 0 means none
	Thresholds  Thresholds
}

// Thresholds defines pass/fail criteria for a run.
type Thresholds struct {
	P50        time.Duration
	P95        time.Duration
	P99        time.Duration
	MaxLatency time.Duration
	ErrorRate  float64 // 0.0 - 1.0
	MinRPS     float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Requests:    100,
		Rate:        0,
		Concurrency: 10,
	}
}

// Validate checks if the config is valid.
func (c *Config) Validate() error {
	if c.Requests <= 0 {
		return fmt.Errorf("requests must be positive")
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate must not be negative")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration must not be negative")
	}
	if c.Thresholds.ErrorRate < 0 || c.Thresholds.ErrorRate > 1 {
		return fmt.Errorf("error rate threshold must be between 0 and 1")
	}
	return nil
}

// HasThresholds reports whether any threshold is set.
func (t Thresholds) HasThresholds() bool {
	return t.P50 > 0 || t.P95 > 0 || t.P99 > 0 || t.MaxLatency > 0 || t.ErrorRate > 0 || t.MinRPS > 0
}

// ThresholdResult is the outcome of one threshold check.
type ThresholdResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}
