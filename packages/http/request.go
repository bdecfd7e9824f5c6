package http

import (
	"context"
	"encoding/base64"
	"net/http"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/hitreq/packages/cookiejar"
	"github.com/abdul-hamid-achik/hitreq/packages/payload"
)

const (
	// DefaultTimeout is the default connect timeout in milliseconds
	DefaultTimeout = 30000
	// DefaultContentType is the content type used when none is set
	DefaultContentType = payload.FormURLEncoded
)

// Values is the per-execution scratch map shared by the callbacks of one
// exchange.
type Values map[string]any

// Callback runs after an exchange. A returned error is passed to the caller
// of Execute unchanged.
type Callback func(resp *Response, values Values) error

// RequestConfig is a snapshot of a Request.
type RequestConfig struct {
	URL         string
	Method      string
	Timeout     int // milliseconds; negative disables the connect timeout
	ContentType string
	UserAgent   string
	Binary      bool
	PathParams  map[string]string
	QueryParams Params
	Headers     http.Header
	Body        any
	Jar         *cookiejar.Jar
}

// Request accumulates the configuration of one HTTP exchange. Setters
// ignore empty keys so optional parameters can be chained freely.
type Request struct {
	cfg        RequestConfig
	onSuccess  Callback
	onError    Callback
	onComplete Callback

	err     error
	skipped []error
}

// New creates a GET request for rawURL with the default timeout, content
// type, a random User-Agent and a fresh cookie jar.
func New(rawURL string) *Request {
	return &Request{
		cfg: RequestConfig{
			URL:         rawURL,
			Method:      http.MethodGet,
			Timeout:     DefaultTimeout,
			ContentType: DefaultContentType,
			UserAgent:   RandomUserAgent(),
			PathParams:  make(map[string]string),
			Headers:     make(http.Header),
			Jar:         cookiejar.New(),
		},
	}
}

// NewRequest creates a request with the given method.
func NewRequest(method, rawURL string) *Request {
	return New(rawURL).SetMethod(method)
}

// SetMethod sets the verb, upper-cased.
func (r *Request) SetMethod(method string) *Request {
	if method != "" {
		r.cfg.Method = strings.ToUpper(method)
	}
	return r
}

// SetURL replaces the URL template.
func (r *Request) SetURL(rawURL string) *Request {
	r.cfg.URL = rawURL
	return r
}

// SetTimeout sets the connect timeout in milliseconds.
func (r *Request) SetTimeout(ms int) *Request {
	r.cfg.Timeout = ms
	return r
}

func (r *Request) SetBinary(binary bool) *Request {
	r.cfg.Binary = binary
	return r
}

func (r *Request) SetUserAgent(userAgent string) *Request {
	r.cfg.UserAgent = userAgent
	return r
}

func (r *Request) SetContentType(contentType string) *Request {
	r.cfg.ContentType = contentType
	return r
}

// SetJar shares jar with this request. Nil is ignored.
func (r *Request) SetJar(jar *cookiejar.Jar) *Request {
	if jar != nil {
		r.cfg.Jar = jar
	}
	return r
}

// Jar returns the cookie jar used by the request.
func (r *Request) Jar() *cookiejar.Jar {
	return r.cfg.Jar
}

// SetPath sets the value substituted for {key} in the URL.
func (r *Request) SetPath(key, value string) *Request {
	if key == "" || value == "" {
		return r
	}
	r.cfg.PathParams[key] = value
	return r
}

// AddQuery appends value to the query parameter key.
func (r *Request) AddQuery(key, value string) *Request {
	if key == "" {
		return r
	}
	r.cfg.QueryParams.Add(key, value)
	return r
}

// AddQueryMap appends every value of every key. Keys are added in sorted
// order.
func (r *Request) AddQueryMap(query map[string][]string) *Request {
	for _, k := range sortedKeys(query) {
		for _, v := range query[k] {
			r.AddQuery(k, v)
		}
	}
	return r
}

// SetCookie stores a name=value cookie in the jar.
func (r *Request) SetCookie(name, value string) *Request {
	if name == "" || value == "" {
		return r
	}
	r.cfg.Jar.Set(name, value)
	return r
}

// SetHeader sets a header. Cookie headers are parsed into the jar instead.
func (r *Request) SetHeader(key, value string) *Request {
	if key == "" {
		return r
	}
	if strings.EqualFold(key, "Cookie") {
		r.addCookieHeader(value)
		return r
	}
	r.cfg.Headers.Set(key, value)
	return r
}

func (r *Request) addCookieHeader(value string) {
	had := r.cfg.Jar.Len()
	added, err := r.cfg.Jar.AddFragment(value)
	if err == nil {
		return
	}
	if added == 0 && had == 0 {
		if r.err == nil {
			r.err = err
		}
		return
	}
	r.skipped = append(r.skipped, err)
}

// SetHeaders sets every header in headers.
func (r *Request) SetHeaders(headers map[string]string) *Request {
	for _, k := range sortedKeys(headers) {
		r.SetHeader(k, headers[k])
	}
	return r
}

// SetData sets one form field, turning the body into a form if it is not
// one already.
func (r *Request) SetData(key, value string) *Request {
	if key == "" {
		return r
	}
	r.form().Set(key, value)
	return r
}

// SetDataMap sets every field of data.
func (r *Request) SetDataMap(data map[string]string) *Request {
	if len(data) == 0 {
		return r
	}
	form := r.form()
	for _, k := range sortedKeys(data) {
		if k != "" {
			form.Set(k, data[k])
		}
	}
	return r
}

// SetBody replaces the body. Nil is ignored.
func (r *Request) SetBody(body any) *Request {
	if body == nil {
		return r
	}
	r.cfg.Body = body
	return r
}

// SetJSON replaces the body with v and switches the content type to JSON.
func (r *Request) SetJSON(v any) *Request {
	r.cfg.ContentType = payload.JSON
	return r.SetBody(v)
}

// SetBasicAuth sets the Authorization header for HTTP basic auth.
func (r *Request) SetBasicAuth(username, password string) *Request {
	creds := username + ":" + password
	return r.SetHeader("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(creds)))
}

// SetBearerToken sets the Authorization header to a bearer token.
func (r *Request) SetBearerToken(token string) *Request {
	if token == "" {
		return r
	}
	return r.SetHeader("Authorization", "Bearer "+token)
}

// OnSuccess runs cb when the status is below 400.
func (r *Request) OnSuccess(cb Callback) *Request {
	r.onSuccess = cb
	return r
}

// OnError runs cb when the status is 400 or above.
func (r *Request) OnError(cb Callback) *Request {
	r.onError = cb
	return r
}

// OnComplete runs cb after every exchange.
func (r *Request) OnComplete(cb Callback) *Request {
	r.onComplete = cb
	return r
}

// Err returns the first error recorded by a setter.
func (r *Request) Err() error {
	return r.err
}

// Skipped returns the malformed cookie fragments that were ignored.
func (r *Request) Skipped() []error {
	return append([]error(nil), r.skipped...)
}

// Config returns a copy of the current configuration. The jar is shared,
// not copied.
func (r *Request) Config() RequestConfig {
	cfg := r.cfg
	cfg.PathParams = make(map[string]string, len(r.cfg.PathParams))
	for k, v := range r.cfg.PathParams {
		cfg.PathParams[k] = v
	}
	cfg.QueryParams = r.cfg.QueryParams.Clone()
	cfg.Headers = r.cfg.Headers.Clone()
	if form, ok := r.cfg.Body.(*payload.Form); ok {
		cfg.Body = form.Clone()
	}
	return cfg
}

// Execute sends the request with DefaultClient.
func (r *Request) Execute(ctx context.Context) (*Response, error) {
	return DefaultClient.Execute(ctx, r)
}

func (r *Request) form() *payload.Form {
	switch body := r.cfg.Body.(type) {
	case *payload.Form:
		if body != nil {
			return body
		}
	case map[string]string:
		form := payload.FormFromMap(body)
		r.cfg.Body = form
		return form
	}
	form := payload.NewForm()
	r.cfg.Body = form
	return form
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
