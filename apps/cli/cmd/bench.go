package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitreq/packages/core/parser"
	"github.com/abdul-hamid-achik/hitreq/packages/core/runner"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/stress"
)

type benchOptions struct {
	variableOptions

	name        string
	requests    int
	rate        float64
	concurrency int
	duration    time.Duration
	thresholds  stress.Thresholds
	json        bool
	noProgress  bool
}

func newBenchCmd(g *globalOptions) *cobra.Command {
	o := &benchOptions{}
	defaults := stress.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "bench <file>",
		Short: "Send one request from a file repeatedly and report latency",
		Long: `Repeat a request from a YAML request file and summarize latency
percentiles, throughput and status codes.

Every copy of the request shares one cookie jar, so a session cookie set by
the first response is sent by the rest. Thresholds turn the run into a
check: any failed threshold exits with code 1.

Examples:
  hitreq bench api.yaml --name listUsers -n 500 -c 20
  hitreq bench api.yaml --name search --rate 50 --duration 30s
  hitreq bench api.yaml --name health --p95 200ms --max-error-rate 0.01`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, g, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.name, "name", "", "Request to repeat (default: first request in the file)")
	f.IntVarP(&o.requests, "requests", "n", getEnvInt("HITREQ_BENCH_REQUESTS", defaults.Requests), "Total requests to send (env: HITREQ_BENCH_REQUESTS)")
	f.Float64VarP(&o.rate, "rate", "r", defaults.Rate, "Requests per second, 0 sends as fast as concurrency allows")
	f.IntVarP(&o.concurrency, "concurrency", "c", getEnvInt("HITREQ_BENCH_CONCURRENCY", defaults.Concurrency), "Requests in flight at once (env: HITREQ_BENCH_CONCURRENCY)")
	f.DurationVarP(&o.duration, "duration", "d", 0, "Stop after this long even if requests remain")
	f.DurationVar(&o.thresholds.P50, "p50", 0, "Fail if p50 latency exceeds this")
	f.DurationVar(&o.thresholds.P95, "p95", 0, "Fail if p95 latency exceeds this")
	f.DurationVar(&o.thresholds.P99, "p99", 0, "Fail if p99 latency exceeds this")
	f.DurationVar(&o.thresholds.MaxLatency, "max-latency", 0, "Fail if any request takes longer than this")
	f.Float64Var(&o.thresholds.ErrorRate, "max-error-rate", 0, "Fail if the error rate (0-1) exceeds this")
	f.Float64Var(&o.thresholds.MinRPS, "min-rps", 0, "Fail if throughput falls below this")
	f.BoolVar(&o.json, "json", false, "Print the summary as JSON")
	f.BoolVar(&o.noProgress, "no-progress", false, "Disable the progress bar")
	o.variableOptions.register(cmd)

	return cmd
}

func (o *benchOptions) run(cmd *cobra.Command, g *globalOptions, path string) error {
	ctx := cmd.Context()

	file, err := parser.ParseFile(path)
	if err != nil {
		return err
	}
	req := file.Requests[0]
	if o.name != "" {
		var ok bool
		if req, ok = file.Request(o.name); !ok {
			return usageError(fmt.Errorf("no request named %q in %s", o.name, path))
		}
	}

	s, err := g.openSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.close(ctx) }()

	res, err := o.resolver(s.log)
	if err != nil {
		return err
	}
	res.SetDefaults(file.Variables)

	builder := runner.NewRunner(nil,
		runner.WithClient(s.client),
		runner.WithResolver(res),
		runner.WithJar(s.jar),
		runner.WithDefaults(s.cfg),
		runner.WithLogger(s.log),
	)
	factory := func() (*http.Request, error) {
		return builder.BuildRequest(file, req)
	}

	cfg := &stress.Config{
		Requests:    o.requests,
		Rate:        o.rate,
		Concurrency: o.concurrency,
		Duration:    o.duration,
		Thresholds:  o.thresholds,
	}
	if err := cfg.Validate(); err != nil {
		return usageError(err)
	}

	reporter := stress.NewReporter(
		stress.WithWriter(cmd.OutOrStdout()),
		stress.WithNoColor(s.noColor()),
		stress.WithNoProgress(o.noProgress || o.json),
	)
	if !o.json {
		reporter.Header(fmt.Sprintf("%s %s", req.Method, req.URL), cfg)
	}

	bench := stress.NewRunner(cfg,
		stress.WithHTTPClient(s.client),
		stress.WithLogger(s.log),
		stress.WithProgress(reporter.Progress),
	)
	summary, err := bench.Run(ctx, factory)
	reporter.ClearProgress()
	if summary == nil {
		return err
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("bench interrupted")
	}

	var results []stress.ThresholdResult
	if cfg.Thresholds.HasThresholds() {
		results = summary.EvaluateThresholds(cfg.Thresholds)
	}
	if o.json {
		if err := reporter.JSONSummary(summary, results); err != nil {
			return err
		}
	} else {
		reporter.Summary(summary, results)
	}

	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
		}
	}
	if failed > 0 {
		return expectationError(fmt.Errorf("%d threshold(s) failed", failed))
	}
	return nil
}
