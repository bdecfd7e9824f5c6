package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	neturl "net/url"
	"time"
)

const (
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

// WireRequest is one fully resolved request as handed to a Transport.
type WireRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
	// ConnectTimeout bounds connection setup. Zero means no limit.
	ConnectTimeout time.Duration
}

// WireResponse is the raw result of an exchange. Body yields the response
// stream for any status code and must be closed by the caller.
type WireResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// ContentEncoding returns the declared Content-Encoding.
func (r *WireResponse) ContentEncoding() string {
	return r.Header.Get("Content-Encoding")
}

// Transport performs a single exchange. Implementations must not follow
// redirects, cache responses or decode the body.
type Transport interface {
	RoundTrip(ctx context.Context, req *WireRequest) (*WireResponse, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *WireRequest) (*WireResponse, error)

func (f TransportFunc) RoundTrip(ctx context.Context, req *WireRequest) (*WireResponse, error) {
	return f(ctx, req)
}

type connectTimeoutKey struct{}

// NetTransport sends requests with net/http.
type NetTransport struct {
	httpClient  *http.Client
	validateSSL bool
	proxyURL    string
}

type TransportOption func(*NetTransport)

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) TransportOption {
	return func(t *NetTransport) {
		t.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) TransportOption {
	return func(t *NetTransport) {
		t.proxyURL = proxyURL
	}
}

func NewNetTransport(opts ...TransportOption) *NetTransport {
	t := &NetTransport{validateSSL: true}
	for _, opt := range opts {
		opt(t)
	}

	dialer := &net.Dialer{KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		DisableCompression:  true,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if d, ok := ctx.Value(connectTimeoutKey{}).(time.Duration); ok && d > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d)
				defer cancel()
			}
			return dialer.DialContext(ctx, network, addr)
		},
	}

	if !t.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if t.proxyURL != "" {
		proxyURL, err := neturl.Parse(t.proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	t.httpClient = &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return t
}

func (t *NetTransport) RoundTrip(ctx context.Context, req *WireRequest) (*WireResponse, error) {
	if req.ConnectTimeout > 0 {
		ctx = context.WithValue(ctx, connectTimeoutKey{}, req.ConnectTimeout)
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range req.Header {
		httpReq.Header[k] = append([]string(nil), vs...)
	}
	// net/http sends Host from the request, not the header map.
	if host := httpReq.Header.Get("Host"); host != "" {
		httpReq.Host = host
		httpReq.Header.Del("Host")
	}

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}

	return &WireResponse{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       httpResp.Body,
	}, nil
}

// CloseIdleConnections closes pooled connections.
func (t *NetTransport) CloseIdleConnections() {
	t.httpClient.CloseIdleConnections()
}
