package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitreq/packages/core/env"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/output"
	"github.com/abdul-hamid-achik/hitreq/packages/payload"
)

type sendOptions struct {
	variableOptions

	method      string
	headers     []string
	path        []string
	query       []string
	data        []string
	cookies     []string
	jsonBody    string
	contentType string
	userAgent   string
	user        string
	bearer      string
	binary      bool
	timeout     int
	requestID   bool
	outputFile  string
	verbose     bool
	fail        bool
}

func newSendCmd(g *globalOptions) *cobra.Command {
	o := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send <url>",
		Short: "Send a single HTTP request",
		Long: `Send one request built from flags and print the response.

PATCH is sent as POST with X-HTTP-Method-Override: PATCH. Cookies returned
by the server are stored in the jar and, with --cookie-store, kept for the
next invocation.

Examples:
  hitreq send https://api.example.com/users/{id} -p id=42
  hitreq send https://api.example.com/search -q q=go -q page=2
  hitreq send https://api.example.com/login -X POST -d user=ana -d pass=secret
  hitreq send https://api.example.com/items -X PATCH --json '{"done":true}'
  hitreq send https://example.com/logo.png --binary -o logo.png`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, g, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.method, "method", "X", "GET", "HTTP method")
	f.StringArrayVarP(&o.headers, "header", "H", nil, "Header as 'Name: value', repeatable")
	f.StringArrayVarP(&o.path, "path", "p", nil, "Path parameter as name=value, replaces {name} in the URL")
	f.StringArrayVarP(&o.query, "query", "q", nil, "Query parameter as name=value, repeatable")
	f.StringArrayVarP(&o.data, "data", "d", nil, "Form field as name=value, repeatable")
	f.StringArrayVarP(&o.cookies, "cookie", "b", nil, "Cookies as 'a=1; b=2', repeatable")
	f.StringVar(&o.jsonBody, "json", "", "JSON request body")
	f.StringVar(&o.contentType, "content-type", "", "Request content type")
	f.StringVarP(&o.userAgent, "user-agent", "A", "", "User-Agent (default: random browser agent)")
	f.StringVarP(&o.user, "user", "u", "", "Basic auth credentials as user:password")
	f.StringVar(&o.bearer, "bearer", "", "Bearer token")
	f.BoolVar(&o.binary, "binary", false, "Read the response body as raw bytes")
	f.IntVar(&o.timeout, "timeout", getEnvInt("HITREQ_TIMEOUT", 0), "Connect timeout in milliseconds, negative disables (env: HITREQ_TIMEOUT)")
	f.BoolVar(&o.requestID, "request-id", false, "Send a random X-Request-Id header")
	f.StringVarP(&o.outputFile, "output", "o", "", "Write the response body to a file")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Print response headers and cookies")
	f.BoolVar(&o.fail, "fail", false, "Exit with code 1 when the status is 400 or above")
	o.variableOptions.register(cmd)

	return cmd
}

func (o *sendOptions) run(cmd *cobra.Command, g *globalOptions, rawURL string) error {
	ctx := cmd.Context()

	s, err := g.openSession(ctx, cmd)
	if err != nil {
		return err
	}
	res, err := o.resolver(s.log)
	if err != nil {
		return err
	}

	hr, err := o.build(s, res, rawURL)
	if err != nil {
		return err
	}
	cfg := hr.Config()
	target := http.NewComposer().Compose(cfg.URL, cfg.PathParams, &cfg.QueryParams)

	resp, err := s.client.Execute(ctx, hr)
	if cerr := s.close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	for _, skipped := range hr.Skipped() {
		s.log.Warn().Err(skipped).Msg("cookie fragment skipped")
	}

	out := cmd.OutOrStdout()
	console := output.NewConsoleFormatter(
		output.WithWriter(out),
		output.WithNoColor(s.noColor() || !output.IsTerminal(out)),
		output.WithVerbose(o.verbose),
	)

	if o.outputFile != "" {
		if err := os.WriteFile(o.outputFile, resp.Body(), 0644); err != nil {
			return fmt.Errorf("writing response body: %w", err)
		}
		console.FormatResponse(cfg.Method, target, &http.Response{
			StatusCode: resp.StatusCode,
			Headers:    resp.Headers,
			Jar:        resp.Jar,
			Duration:   resp.Duration,
		})
		fmt.Fprintf(out, "%d bytes written to %s\n", len(resp.Body()), o.outputFile)
	} else {
		console.FormatResponse(cfg.Method, target, resp)
	}

	if o.fail && http.OutcomeOf(resp.StatusCode) == http.OutcomeError {
		return expectationError(fmt.Errorf("%s %s: status %d", cfg.Method, target, resp.StatusCode))
	}
	return nil
}

// build turns the flags into a request sharing the session jar.
func (o *sendOptions) build(s *session, res *env.Resolver, rawURL string) (*http.Request, error) {
	resolve := res.Resolve

	if err := http.ValidateURL(resolve(rawURL)); err != nil {
		return nil, usageError(err)
	}

	hr := s.cfg.Apply(http.NewRequest(o.method, resolve(rawURL))).SetJar(s.jar)

	for _, h := range o.headers {
		k, v, err := splitPair(h, ":")
		if err != nil {
			return nil, usageError(fmt.Errorf("--header: %w", err))
		}
		hr.SetHeader(k, resolve(v))
	}
	for _, c := range o.cookies {
		hr.SetHeader("Cookie", resolve(c))
	}
	for _, p := range o.path {
		k, v, err := splitPair(p, "=")
		if err != nil {
			return nil, usageError(fmt.Errorf("--path: %w", err))
		}
		hr.SetPath(k, resolve(v))
	}
	for _, q := range o.query {
		k, v, err := splitPair(q, "=")
		if err != nil {
			return nil, usageError(fmt.Errorf("--query: %w", err))
		}
		hr.AddQuery(k, resolve(v))
	}

	if o.contentType != "" {
		hr.SetContentType(o.contentType)
	}
	if o.jsonBody != "" && len(o.data) > 0 {
		return nil, usageError(fmt.Errorf("--json and --data are mutually exclusive"))
	}
	for _, d := range o.data {
		k, v, err := splitPair(d, "=")
		if err != nil {
			return nil, usageError(fmt.Errorf("--data: %w", err))
		}
		hr.SetData(k, resolve(v))
	}
	if o.jsonBody != "" {
		var body any
		if err := payload.DefaultJSON.Unmarshal([]byte(resolve(o.jsonBody)), &body); err != nil {
			return nil, usageError(fmt.Errorf("--json: %w", err))
		}
		hr.SetJSON(body)
	}

	if o.user != "" {
		user, pass, err := splitPair(o.user, ":")
		if err != nil {
			return nil, usageError(fmt.Errorf("--user: %w", err))
		}
		hr.SetBasicAuth(resolve(user), resolve(pass))
	}
	if o.bearer != "" {
		hr.SetBearerToken(resolve(o.bearer))
	}
	if o.userAgent != "" {
		hr.SetUserAgent(o.userAgent)
	}
	if o.timeout != 0 {
		hr.SetTimeout(o.timeout)
	}
	if o.requestID {
		hr.SetHeader("X-Request-Id", uuid.NewString())
	}
	hr.SetBinary(o.binary)

	if err := hr.Err(); err != nil {
		return nil, usageError(err)
	}
	return hr, nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usageError(cobra.ExactArgs(n)(cmd, args))
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usageError(cobra.MinimumNArgs(n)(cmd, args))
	}
}
