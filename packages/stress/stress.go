package stress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/logger"
)

// RequestFactory builds a fresh request for each iteration. Requests built
// by one factory usually share a jar, so a session carries across them.
type RequestFactory func() (*http.Request, error)

// Runner executes bench runs.
type Runner struct {
	config    *Config
	client    *http.Client
	scheduler *Scheduler
	metrics   *Metrics
	log       *logger.Logger
	progress  func(done, total int64)
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) RunnerOption {
	return func(r *Runner) {
		r.client = client
	}
}

func WithLogger(l *logger.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.log = l.WithComponent("stress")
		}
	}
}

// WithProgress registers a callback invoked after every completed request.
func WithProgress(fn func(done, total int64)) RunnerOption {
	return func(r *Runner) {
		r.progress = fn
	}
}

func NewRunner(config *Config, opts ...RunnerOption) *Runner {
	if config == nil {
		config = DefaultConfig()
	}
	r := &Runner{
		config:    config,
		scheduler: NewScheduler(config),
		metrics:   NewMetrics(),
		log:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = http.NewClient()
	}
	return r
}

// Metrics returns the collector of the run.
func (r *Runner) Metrics() *Metrics {
	return r.metrics
}

// Run sends config.Requests requests built by factory and returns the
// summary. Hitting config.Duration ends the run early without an error;
// cancelling ctx returns the partial summary with ctx's error.
func (r *Runner) Run(ctx context.Context, factory RequestFactory) (*Summary, error) {
	if err := r.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bench config: %w", err)
	}
	if _, err := factory(); err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	runCtx := ctx
	if r.config.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.config.Duration)
		defer cancel()
	}

	r.log.Info().
		Int("requests", r.config.Requests).
		Float64("rate", r.config.Rate).
		Int("concurrency", r.config.Concurrency).
		Msg("bench started")

	var (
		wg   sync.WaitGroup
		done atomic.Int64
	)
	total := int64(r.config.Requests)

	r.metrics.Start()
	for i := 0; i < r.config.Requests; i++ {
		if err := r.scheduler.Wait(runCtx); err != nil {
			break
		}
		if err := r.scheduler.Acquire(runCtx); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer r.scheduler.Release()
			r.execute(runCtx, factory)
			if n := done.Add(1); r.progress != nil {
				r.progress(n, total)
			}
		}()
	}
	wg.Wait()
	r.metrics.Stop()

	summary := r.metrics.GetSummary()
	r.log.Info().
		Int64("total", summary.TotalRequests).
		Int64("errors", summary.ErrorCount).
		Dur("p95", summary.P95).
		Msg("bench finished")

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (r *Runner) execute(ctx context.Context, factory RequestFactory) {
	req, err := factory()
	if err != nil {
		r.metrics.Record(0, 0, err)
		r.log.Warn().Err(err).Msg("building request")
		return
	}

	start := time.Now()
	resp, err := r.client.Execute(ctx, req)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		r.metrics.Record(resp.Duration, resp.StatusCode, nil)
	case http.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded):
		r.metrics.RecordTimeout()
	default:
		r.metrics.Record(elapsed, 0, err)
		r.log.Debug().Err(err).Msg("request failed")
	}
}
