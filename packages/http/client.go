package http

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/abdul-hamid-achik/hitreq/packages/logger"
	"github.com/abdul-hamid-achik/hitreq/packages/payload"
)

// binaryChunkSize is the read size used when draining binary bodies.
const binaryChunkSize = 16384

// Client executes Requests over a Transport.
type Client struct {
	transport      Transport
	codec          *payload.Codec
	composer       *Composer
	log            *logger.Logger
	debug          bool
	defaultHeaders map[string]string
}

// DefaultClient is used by Request.Execute.
var DefaultClient = NewClient()

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a client. Options are applied in order.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		log:            logger.Nop(),
		defaultHeaders: make(map[string]string),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = NewNetTransport()
	}
	if c.codec == nil {
		c.codec = payload.NewCodec(nil)
	}
	if c.composer == nil {
		c.composer = NewComposer()
	}
	return c
}

func WithTransport(t Transport) ClientOption {
	return func(c *Client) {
		c.transport = t
	}
}

func WithCodec(codec *payload.Codec) ClientOption {
	return func(c *Client) {
		c.codec = codec
	}
}

func WithComposer(composer *Composer) ClientOption {
	return func(c *Client) {
		c.composer = composer
	}
}

func WithLogger(l *logger.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.log = l.WithComponent("http")
		}
	}
}

// WithDebug logs every request and response at debug level.
func WithDebug(debug bool) ClientOption {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithDefaultHeader sets a header applied before the request's own headers.
func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// Execute runs the exchange and its callbacks and returns the response.
func (c *Client) Execute(ctx context.Context, r *Request) (*Response, error) {
	return Transform(ctx, c, r, func(resp *Response, _ Values) (*Response, error) {
		return resp, nil
	})
}

// Transform runs the exchange and its callbacks, then returns fn applied to
// the response and the values the callbacks shared.
func Transform[T any](ctx context.Context, c *Client, r *Request, fn func(*Response, Values) (T, error)) (T, error) {
	var zero T

	resp, err := c.exchange(ctx, r)
	if err != nil {
		return zero, err
	}

	values := make(Values)
	if err := r.dispatch(resp, values); err != nil {
		return zero, err
	}
	return fn(resp, values)
}

// Outcome classifies a completed exchange for callback dispatch.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeError
)

// OutcomeOf returns OutcomeError for status 400 and above.
func OutcomeOf(status int) Outcome {
	if status >= 400 {
		return OutcomeError
	}
	return OutcomeSuccess
}

func (r *Request) dispatch(resp *Response, values Values) error {
	var cb Callback
	switch OutcomeOf(resp.StatusCode) {
	case OutcomeSuccess:
		cb = r.onSuccess
	case OutcomeError:
		cb = r.onError
	}
	if cb != nil {
		if err := cb(resp, values); err != nil {
			return err
		}
	}
	if r.onComplete != nil {
		return r.onComplete(resp, values)
	}
	return nil
}

func (c *Client) exchange(ctx context.Context, r *Request) (*Response, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, err := range r.skipped {
		c.log.Warn().Err(err).Msg("skipped malformed cookie")
	}

	cfg := &r.cfg
	wire, err := c.buildWireRequest(cfg)
	if err != nil {
		return nil, err
	}
	c.dumpRequest(wire)

	start := time.Now()
	wresp, err := c.transport.RoundTrip(ctx, wire)
	if err != nil {
		return nil, &TransportError{Op: OpSend, Method: wire.Method, URL: wire.URL, Err: err}
	}
	if wresp.Body != nil {
		defer wresp.Body.Close()
	}

	headers := wresp.Header.Clone()
	if headers == nil {
		headers = make(http.Header)
	}
	for _, line := range headerValues(headers, "Set-Cookie") {
		if err := cfg.Jar.SetCookie(line); err != nil {
			c.log.Warn().Err(err).Str(logger.FieldURL, wire.URL).Msg("skipped malformed Set-Cookie")
		}
	}

	resp := &Response{
		StatusCode: wresp.StatusCode,
		Headers:    headers,
		Binary:     cfg.Binary,
		Jar:        cfg.Jar,
		json:       c.codec.JSONCodec(),
	}

	if err := c.readBody(wresp, resp); err != nil {
		return nil, &TransportError{Op: OpRead, Method: wire.Method, URL: wire.URL, Err: err}
	}
	resp.Duration = time.Since(start)

	c.dumpResponse(wire, resp)
	return resp, nil
}

func (c *Client) buildWireRequest(cfg *RequestConfig) (*WireRequest, error) {
	finalURL := c.composer.Compose(cfg.URL, cfg.PathParams, &cfg.QueryParams)
	if err := ValidateURL(finalURL); err != nil {
		return nil, &TransportError{Op: OpResolve, Method: cfg.Method, URL: finalURL, Err: err}
	}
	u, _ := neturl.Parse(finalURL)

	method := cfg.Method
	header := make(http.Header)
	if method == http.MethodPatch {
		method = http.MethodPost
		header.Set("X-HTTP-Method-Override", http.MethodPatch)
	}
	sendsBody := method == http.MethodPost || method == http.MethodPut

	var body []byte
	if sendsBody && cfg.Body != nil {
		data, err := c.codec.Serialize(cfg.Body, cfg.ContentType)
		if err != nil {
			return nil, err
		}
		body = data
	}

	if cfg.Headers.Get("Accept") == "" {
		header.Set("Accept", "*/*")
	}
	header.Set("Host", u.Host)
	header.Set("Origin", u.Scheme+"://"+u.Host)
	if cfg.UserAgent != "" {
		header.Set("User-Agent", cfg.UserAgent)
	}
	header.Set("Content-Language", "en-US")
	header.Set("Accept-Encoding", "gzip")
	if sendsBody {
		header.Set("Content-Type", cfg.ContentType)
	}

	for k, v := range c.defaultHeaders {
		header.Set(k, v)
	}
	for k, vs := range cfg.Headers {
		header[k] = append([]string(nil), vs...)
	}

	if cookie, ok := cfg.Jar.Header(); ok {
		header.Set("Cookie", cookie)
	}

	var connectTimeout time.Duration
	if cfg.Timeout > 0 {
		connectTimeout = time.Duration(cfg.Timeout) * time.Millisecond
	}

	return &WireRequest{
		Method:         method,
		URL:            finalURL,
		Header:         header,
		Body:           body,
		ConnectTimeout: connectTimeout,
	}, nil
}

func (c *Client) readBody(wresp *WireResponse, resp *Response) error {
	var reader io.Reader = strings.NewReader("")
	if wresp.Body != nil {
		reader = wresp.Body
	}

	if strings.EqualFold(strings.TrimSpace(wresp.ContentEncoding()), "gzip") {
		br := bufio.NewReader(reader)
		if _, err := br.Peek(1); err == nil {
			gz, err := gzip.NewReader(br)
			if err != nil {
				return err
			}
			defer gz.Close()
			reader = gz
		} else if !errors.Is(err, io.EOF) {
			return err
		} else {
			reader = br
		}
	}

	if resp.Binary {
		data, err := readChunks(reader)
		if err != nil {
			return err
		}
		resp.Data = data
		return nil
	}

	text, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	resp.Content = strings.ToValidUTF8(string(text), "\uFFFD")
	return nil
}

func readChunks(r io.Reader) ([]byte, error) {
	data := make([]byte, 0, binaryChunkSize)
	chunk := make([]byte, binaryChunkSize)
	for {
		n, err := r.Read(chunk)
		data = append(data, chunk[:n]...)
		if errors.Is(err, io.EOF) {
			return data, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// headerValues returns the values of key, including entries whose key was
// not canonicalised by the transport.
func headerValues(h http.Header, key string) []string {
	var out []string
	for k, vs := range h {
		if strings.EqualFold(k, key) {
			out = append(out, vs...)
		}
	}
	return out
}
