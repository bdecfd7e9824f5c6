package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitreq/packages/payload"
)

// scriptedTransport records the wire request and replies with a canned
// response.
type scriptedTransport struct {
	status int
	header http.Header
	body   string
	err    error

	got    *WireRequest
	closed bool
}

func (s *scriptedTransport) RoundTrip(_ context.Context, req *WireRequest) (*WireResponse, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &WireResponse{
		StatusCode: s.status,
		Header:     s.header,
		Body:       &trackingBody{Reader: strings.NewReader(s.body), closed: &s.closed},
	}, nil
}

type trackingBody struct {
	io.Reader
	closed *bool
	err    error
}

func (b *trackingBody) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	return b.Reader.Read(p)
}

func (b *trackingBody) Close() error {
	*b.closed = true
	return nil
}

func TestExchange_SuccessWithSetCookie(t *testing.T) {
	tr := &scriptedTransport{
		status: 201,
		header: http.Header{"Set-Cookie": {"session=abc"}},
	}
	client := NewClient(WithTransport(tr))

	successCalls, errorCalls := 0, 0
	r := New("http://api.test/items").
		OnSuccess(func(*Response, Values) error { successCalls++; return nil }).
		OnError(func(*Response, Values) error { errorCalls++; return nil })

	resp, err := client.Execute(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, 1, successCalls)
	assert.Equal(t, 0, errorCalls)

	header, ok := r.Jar().Header()
	require.True(t, ok)
	assert.Equal(t, "session=abc", header)
	assert.True(t, tr.closed)
}

func TestExchange_CompleteFiresForBothOutcomes(t *testing.T) {
	for _, status := range []int{200, 302, 399, 400, 404, 500} {
		tr := &scriptedTransport{status: status}
		client := NewClient(WithTransport(tr))

		var order []string
		r := New("http://api.test/").
			OnSuccess(func(*Response, Values) error { order = append(order, "success"); return nil }).
			OnError(func(*Response, Values) error { order = append(order, "error"); return nil }).
			OnComplete(func(*Response, Values) error { order = append(order, "complete"); return nil })

		_, err := client.Execute(context.Background(), r)
		require.NoError(t, err)

		first := "success"
		if status >= 400 {
			first = "error"
		}
		assert.Equal(t, []string{first, "complete"}, order, "status %d", status)
	}
}

func TestExchange_BinaryIgnoresStatus(t *testing.T) {
	for _, status := range []int{200, 500} {
		tr := &scriptedTransport{status: status, body: "\x00\x01"}
		resp, err := NewClient(WithTransport(tr)).Execute(context.Background(), New("http://api.test/").SetBinary(true))
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 1}, resp.Data)
		assert.Empty(t, resp.Content)
	}

	tr := &scriptedTransport{status: 200}
	resp, err := NewClient(WithTransport(tr)).Execute(context.Background(), New("http://api.test/").SetBinary(true))
	require.NoError(t, err)
	assert.NotNil(t, resp.Data)
	assert.Empty(t, resp.Data)
}

func TestExchange_HeaderOrdering(t *testing.T) {
	tr := &scriptedTransport{status: 200}
	client := NewClient(WithTransport(tr))

	r := New("https://api.test:8443/v1").
		SetMethod("PUT").
		SetUserAgent("agent").
		SetHeader("Host", "override.test").
		SetHeader("User-Agent", "caller-agent").
		SetHeader("Cookie", "a=1").
		SetHeader("X-Extra", "x")

	_, err := client.Execute(context.Background(), r)
	require.NoError(t, err)

	h := tr.got.Header
	assert.Equal(t, "*/*", h.Get("Accept"))
	assert.Equal(t, "override.test", h.Get("Host"))
	assert.Equal(t, "https://api.test:8443", h.Get("Origin"))
	assert.Equal(t, "caller-agent", h.Get("User-Agent"))
	assert.Equal(t, "en-US", h.Get("Content-Language"))
	assert.Equal(t, "gzip", h.Get("Accept-Encoding"))
	assert.Equal(t, payload.FormURLEncoded, h.Get("Content-Type"))
	assert.Equal(t, "a=1", h.Get("Cookie"))
	assert.Equal(t, "x", h.Get("X-Extra"))
	assert.Empty(t, h.Get("X-HTTP-Method-Override"))
	assert.Equal(t, "PUT", tr.got.Method)
}

func TestExchange_ConnectTimeout(t *testing.T) {
	tests := []struct {
		ms       int
		expected string
	}{
		{30000, "30s"},
		{250, "250ms"},
		{0, "0s"},
		{-1, "0s"},
	}

	for _, tt := range tests {
		tr := &scriptedTransport{status: 200}
		_, err := NewClient(WithTransport(tr)).Execute(context.Background(), New("http://api.test/").SetTimeout(tt.ms))
		require.NoError(t, err)
		assert.Equal(t, tt.expected, tr.got.ConnectTimeout.String())
	}
}

func TestExchange_UnsupportedPayloadIsNotSent(t *testing.T) {
	tr := &scriptedTransport{status: 200}
	r := New("http://api.test/").
		SetMethod("POST").
		SetBody([]string{"not", "a", "map"})

	_, err := NewClient(WithTransport(tr)).Execute(context.Background(), r)
	require.Error(t, err)
	assert.True(t, payload.IsUnsupported(err))
	assert.Nil(t, tr.got)
}

func TestExchange_FormDataWithJSONContentType(t *testing.T) {
	tr := &scriptedTransport{status: 200}
	r := NewRequest("POST", "http://api.test/items").
		SetContentType(payload.JSON).
		SetData("a", "1").
		SetData("b", "x y")

	_, err := NewClient(WithTransport(tr)).Execute(context.Background(), r)
	require.NoError(t, err)
	require.NotNil(t, tr.got)
	assert.Equal(t, `{"a":"1","b":"x y"}`, string(tr.got.Body))
	assert.Equal(t, payload.JSON, tr.got.Header.Get("Content-Type"))
}

func TestExchange_MalformedCookieAbortsBeforeSend(t *testing.T) {
	tr := &scriptedTransport{status: 200}
	r := New("http://api.test/").SetHeader("Cookie", "bad name=1")

	_, err := NewClient(WithTransport(tr)).Execute(context.Background(), r)
	require.Error(t, err)
	assert.Nil(t, tr.got)
}

func TestExchange_MalformedSetCookieIsSkipped(t *testing.T) {
	tr := &scriptedTransport{
		status: 200,
		header: http.Header{"Set-Cookie": {"=broken", "good=1; Expires=Wed, 21 Oct 2099 07:28:00 GMT"}},
	}
	r := New("http://api.test/")

	_, err := NewClient(WithTransport(tr)).Execute(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Jar().Len())
	v, _ := r.Jar().Get("good")
	assert.Equal(t, "1", v)
}

func TestExchange_LowercaseSetCookieKey(t *testing.T) {
	tr := &scriptedTransport{status: 200, header: http.Header{"set-cookie": {"s=1"}}}
	r := New("http://api.test/")

	resp, err := NewClient(WithTransport(tr)).Execute(context.Background(), r)
	require.NoError(t, err)
	v, ok := resp.Cookie("s")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestExchange_TransportFailure(t *testing.T) {
	tr := &scriptedTransport{err: errors.New("connection reset")}
	called := false
	r := New("http://api.test/").OnComplete(func(*Response, Values) error { called = true; return nil })

	_, err := NewClient(WithTransport(tr)).Execute(context.Background(), r)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.False(t, IsTimeout(err))
	assert.False(t, called)
}

func TestExchange_ReadFailureClosesBody(t *testing.T) {
	closed := false
	tr := TransportFunc(func(context.Context, *WireRequest) (*WireResponse, error) {
		return &WireResponse{
			StatusCode: 200,
			Header:     http.Header{},
			Body:       &trackingBody{Reader: strings.NewReader(""), closed: &closed, err: errors.New("broken pipe")},
		}, nil
	})

	_, err := NewClient(WithTransport(tr)).Execute(context.Background(), New("http://api.test/"))
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, OpRead, te.Op)
	assert.True(t, closed)
}

func TestExchange_CallbackErrorPropagates(t *testing.T) {
	tr := &scriptedTransport{status: 200, header: http.Header{"Set-Cookie": {"s=1"}}}
	boom := errors.New("boom")
	completed := false

	r := New("http://api.test/").
		OnSuccess(func(*Response, Values) error { return boom }).
		OnComplete(func(*Response, Values) error { completed = true; return nil })

	_, err := NewClient(WithTransport(tr)).Execute(context.Background(), r)
	assert.ErrorIs(t, err, boom)
	assert.False(t, completed)
	assert.Equal(t, 1, r.Jar().Len())
}

func TestExchange_EmptyGzipBody(t *testing.T) {
	tr := &scriptedTransport{status: 204, header: http.Header{"Content-Encoding": {"gzip"}}}
	resp, err := NewClient(WithTransport(tr)).Execute(context.Background(), New("http://api.test/"))
	require.NoError(t, err)
	assert.Equal(t, "", resp.Content)
}

func TestExchange_InvalidUTF8Replaced(t *testing.T) {
	tr := &scriptedTransport{status: 200, body: "ok\xffdone\r\nnext"}
	resp, err := NewClient(WithTransport(tr)).Execute(context.Background(), New("http://api.test/"))
	require.NoError(t, err)
	assert.Equal(t, "ok\uFFFDdone\r\nnext", resp.Content)
}

func TestTransform(t *testing.T) {
	tr := &scriptedTransport{status: 200, body: `{"items":[{"id":1},{"id":2}]}`}
	r := New("http://api.test/").
		OnSuccess(func(resp *Response, v Values) error {
			v["count"] = int(resp.Path("items.#").Int())
			return nil
		})

	count, err := Transform(context.Background(), NewClient(WithTransport(tr)), r,
		func(_ *Response, v Values) (int, error) {
			return v["count"].(int), nil
		})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, OutcomeOf(100))
	assert.Equal(t, OutcomeSuccess, OutcomeOf(399))
	assert.Equal(t, OutcomeError, OutcomeOf(400))
	assert.Equal(t, OutcomeError, OutcomeOf(503))
}
