package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitreq/packages/assertions"
	"github.com/abdul-hamid-achik/hitreq/packages/capture"
	"github.com/abdul-hamid-achik/hitreq/packages/cookiejar"
	"github.com/abdul-hamid-achik/hitreq/packages/core/config"
	"github.com/abdul-hamid-achik/hitreq/packages/core/env"
	"github.com/abdul-hamid-achik/hitreq/packages/core/parser"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/logger"
)

type Runner struct {
	client   *http.Client
	resolver *env.Resolver
	jar      *cookiejar.Jar
	defaults *config.Config
	log      *logger.Logger
	config   *Config
}

type Config struct {
	Bail       bool
	NameFilter string
}

type Option func(*Runner)

func WithClient(c *http.Client) Option {
	return func(r *Runner) {
		r.client = c
	}
}

func WithResolver(res *env.Resolver) Option {
	return func(r *Runner) {
		r.resolver = res
	}
}

// WithJar shares jar across every request of the run.
func WithJar(jar *cookiejar.Jar) Option {
	return func(r *Runner) {
		r.jar = jar
	}
}

// WithDefaults seeds every request with the configured defaults.
func WithDefaults(cfg *config.Config) Option {
	return func(r *Runner) {
		r.defaults = cfg
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l.WithComponent("runner")
		}
	}
}

func NewRunner(cfg *Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	r := &Runner{
		config: cfg,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = http.NewClient()
	}
	if r.resolver == nil {
		r.resolver = env.NewResolver()
	}
	if r.jar == nil {
		r.jar = cookiejar.New()
	}
	return r
}

// Jar returns the jar shared by the run.
func (r *Runner) Jar() *cookiejar.Jar {
	return r.jar
}

// Resolver returns the variable resolver, including captures made so far.
func (r *Runner) Resolver() *env.Resolver {
	return r.resolver
}

type RunResult struct {
	File     string
	Results  []*RequestResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
}

// HasNetworkError reports whether any request failed before a response was
// read.
func (rr *RunResult) HasNetworkError() bool {
	for _, res := range rr.Results {
		if res.Error != nil && http.IsTransport(res.Error) {
			return true
		}
	}
	return false
}

type RequestResult struct {
	Name       string
	Method     string
	URL        string
	Passed     bool
	Skipped    bool
	SkipReason string
	Duration   time.Duration
	Response   *http.Response
	Assertions []*assertions.Result
	Captures   map[string]any
	Missing    []string
	Error      error
}

func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	file, err := parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}
	return r.Run(ctx, file)
}

// Run executes the requests of file in order.
func (r *Runner) Run(ctx context.Context, file *parser.File) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{File: file.Path}

	r.resolver.SetDefaults(file.Variables)
	baseDir := filepath.Dir(file.Path)

	bailed := false
	for _, req := range file.Requests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch {
		case bailed:
			result.add(&RequestResult{Name: req.Name, Skipped: true, SkipReason: "previous request failed"})
			continue
		case !matchesPattern(req.Name, r.config.NameFilter):
			result.add(&RequestResult{Name: req.Name, Skipped: true, SkipReason: "filtered out"})
			continue
		}

		reqResult := r.executeRequest(ctx, file, req, baseDir)
		result.add(reqResult)
		if !reqResult.Passed && r.config.Bail {
			bailed = true
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (rr *RunResult) add(res *RequestResult) {
	rr.Results = append(rr.Results, res)
	switch {
	case res.Skipped:
		rr.Skipped++
	case res.Passed:
		rr.Passed++
	default:
		rr.Failed++
	}
}

// BuildRequest turns a parsed request into an executable one, resolving
// variables against the current captures.
func (r *Runner) BuildRequest(file *parser.File, req *parser.Request) (*http.Request, error) {
	resolve := r.resolver.Resolve

	hr := http.NewRequest(req.Method, resolve(req.URL))
	if r.defaults != nil {
		r.defaults.Apply(hr)
	}
	hr.SetJar(r.jar)

	for _, h := range file.Headers {
		hr.SetHeader(h.Key, resolve(h.Value))
	}
	for _, h := range req.Headers {
		hr.SetHeader(h.Key, resolve(h.Value))
	}
	for k, v := range req.Path {
		hr.SetPath(k, resolve(v))
	}
	for _, q := range req.Query {
		hr.AddQuery(q.Key, resolve(q.Value))
	}
	for _, c := range req.Cookies {
		hr.SetCookie(c.Key, resolve(c.Value))
	}

	if req.ContentType != "" {
		hr.SetContentType(req.ContentType)
	}
	for _, d := range req.Data {
		hr.SetData(d.Key, resolve(d.Value))
	}
	if req.JSON != nil {
		hr.SetJSON(r.resolver.ResolveValue(req.JSON))
	}

	if req.Auth != nil {
		switch req.Auth.Type {
		case parser.AuthBasic:
			hr.SetBasicAuth(resolve(req.Auth.Username), resolve(req.Auth.Password))
		case parser.AuthBearer:
			hr.SetBearerToken(resolve(req.Auth.Token))
		}
	}
	if req.Timeout > 0 {
		hr.SetTimeout(req.Timeout)
	}
	hr.SetBinary(req.Binary)

	if unresolved := r.resolver.Unresolved(req.URL); len(unresolved) > 0 {
		return nil, fmt.Errorf("%s: unresolved variables in url: %s", req.Name, strings.Join(unresolved, ", "))
	}
	return hr, hr.Err()
}

func (r *Runner) executeRequest(ctx context.Context, file *parser.File, req *parser.Request, baseDir string) *RequestResult {
	result := &RequestResult{
		Name:   req.Name,
		Method: req.Method,
		URL:    req.URL,
	}

	hr, err := r.BuildRequest(file, req)
	if err != nil {
		result.Error = err
		return result
	}
	cfg := hr.Config()
	result.URL = cfg.URL

	hr.OnError(func(resp *http.Response, _ http.Values) error {
		r.log.Debug().Str("request", req.Name).Int(logger.FieldStatus, resp.StatusCode).Msg("error status")
		return nil
	})

	start := time.Now()
	_, err = http.Transform(ctx, r.client, hr, func(resp *http.Response, _ http.Values) (*RequestResult, error) {
		result.Response = resp
		r.check(result, req, resp, baseDir)
		return result, nil
	})
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		result.Passed = false
	}
	return result
}

func (r *Runner) check(result *RequestResult, req *parser.Request, resp *http.Response, baseDir string) {
	if len(req.Assertions) > 0 {
		result.Assertions = assertions.EvaluateAll(resp, req.Assertions,
			assertions.WithBaseDir(baseDir),
			assertions.WithResolver(r.resolver),
		)
		result.Passed = len(assertions.Failed(result.Assertions)) == 0
	} else {
		result.Passed = resp.IsSuccess()
	}

	if len(req.Captures) > 0 {
		values, missing := capture.Apply(r.resolver, req.Name, resp, req.Captures)
		result.Captures = values
		result.Missing = missing
		for _, name := range missing {
			r.log.Warn().Str("request", req.Name).Str("capture", name).Msg("capture found no value")
		}
	}
}

// matchesPattern supports a leading or trailing '*' wildcard.
func matchesPattern(name, pattern string) bool {
	switch {
	case pattern == "" || pattern == "*":
		return true
	case strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*"):
		return strings.Contains(name, pattern[1:len(pattern)-1])
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(name, pattern[1:])
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	default:
		return name == pattern
	}
}
