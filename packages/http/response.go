package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/hitreq/packages/cookiejar"
	"github.com/abdul-hamid-achik/hitreq/packages/payload"
)

// Response is the normalized result of one exchange. Exactly one of Content
// and Data is populated, chosen by Binary.
type Response struct {
	StatusCode int
	Headers    http.Header
	Content    string
	Data       []byte
	Binary     bool
	Jar        *cookiejar.Jar
	Duration   time.Duration

	json payload.JSONCodec
}

// Body returns the raw body bytes.
func (r *Response) Body() []byte {
	if r.Binary {
		return r.Data
	}
	return []byte(r.Content)
}

// String returns the body as text.
func (r *Response) String() string {
	if r.Binary {
		return string(r.Data)
	}
	return r.Content
}

// Header returns the first value of key, matched case-insensitively.
func (r *Response) Header(key string) string {
	if v := r.Headers.Get(key); v != "" {
		return v
	}
	for k, vs := range r.Headers {
		if strings.EqualFold(k, key) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

// HeaderValues returns every value of key.
func (r *Response) HeaderValues(key string) []string {
	if vs := r.Headers.Values(key); len(vs) > 0 {
		return vs
	}
	for k, vs := range r.Headers {
		if strings.EqualFold(k, key) {
			return vs
		}
	}
	return nil
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	return payload.KindOf(r.ContentType()) == payload.KindJSON
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// JSON decodes the body into v. An empty body leaves v untouched.
func (r *Response) JSON(v any) error {
	body := r.Body()
	if len(body) == 0 {
		return nil
	}
	return r.codec().Unmarshal(body, v)
}

// JSONMap decodes the body as a JSON object. An empty body yields nil.
func (r *Response) JSONMap() (map[string]any, error) {
	var m map[string]any
	if err := r.JSON(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// JSONList decodes the body as a JSON array of objects. An empty body
// yields nil.
func (r *Response) JSONList() ([]map[string]any, error) {
	var list []map[string]any
	if err := r.JSON(&list); err != nil {
		return nil, err
	}
	return list, nil
}

// Path evaluates a gjson path against the body.
func (r *Response) Path(path string) gjson.Result {
	return gjson.GetBytes(r.Body(), path)
}

// Cookie returns the value of a cookie held by the response's jar.
func (r *Response) Cookie(name string) (string, bool) {
	if r.Jar == nil {
		return "", false
	}
	return r.Jar.Get(name)
}

func (r *Response) codec() payload.JSONCodec {
	if r.json != nil {
		return r.json
	}
	return payload.DefaultJSON
}
