package capture

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitreq/packages/cookiejar"
	"github.com/abdul-hamid-achik/hitreq/packages/core/env"
	"github.com/abdul-hamid-achik/hitreq/packages/core/parser"
	hitreq "github.com/abdul-hamid-achik/hitreq/packages/http"
)

func newResponse(body string) *hitreq.Response {
	jar := cookiejar.New()
	jar.Set("session", "abc")
	return &hitreq.Response{
		StatusCode: 201,
		Headers:    http.Header{"Content-Type": {"application/json"}, "Location": {"/users/7"}},
		Content:    body,
		Jar:        jar,
		Duration:   42 * time.Millisecond,
	}
}

func TestExtractor_Sources(t *testing.T) {
	resp := newResponse(`{"data":{"id":7,"tags":["a","b"]}}`)
	e := NewExtractor(resp)

	tests := []struct {
		name    string
		capture *parser.Capture
		want    any
		found   bool
	}{
		{"body path", &parser.Capture{Source: parser.CaptureBody, Path: "data.id"}, float64(7), true},
		{"array element", &parser.Capture{Source: parser.CaptureBody, Path: "data.tags.1"}, "b", true},
		{"bracket index", &parser.Capture{Source: parser.CaptureBody, Path: "data.tags[0]"}, "a", true},
		{"missing path", &parser.Capture{Source: parser.CaptureBody, Path: "data.nope"}, nil, false},
		{"header", &parser.Capture{Source: parser.CaptureHeader, Path: "location"}, "/users/7", true},
		{"missing header", &parser.Capture{Source: parser.CaptureHeader, Path: "X-None"}, nil, false},
		{"cookie", &parser.Capture{Source: parser.CaptureCookie, Path: "session"}, "abc", true},
		{"status", &parser.Capture{Source: parser.CaptureStatus}, 201, true},
		{"duration", &parser.Capture{Source: parser.CaptureDuration}, int64(42), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.Extract(tt.capture)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestExtractor_TextBody(t *testing.T) {
	resp := newResponse("plain text")
	resp.Headers.Set("Content-Type", "text/plain")
	e := NewExtractor(resp)

	v, ok := e.Extract(&parser.Capture{Source: parser.CaptureBody})
	require.True(t, ok)
	assert.Equal(t, "plain text", v)

	_, ok = e.Extract(&parser.Capture{Source: parser.CaptureBody, Path: "id"})
	assert.False(t, ok)
}

func TestApply(t *testing.T) {
	resp := newResponse(`{"token":"t-1"}`)
	r := env.NewResolver()

	values, missing := Apply(r, "login", resp, []*parser.Capture{
		{Name: "token", Source: parser.CaptureBody, Path: "token"},
		{Name: "gone", Source: parser.CaptureBody, Path: "gone"},
	})

	assert.Equal(t, map[string]any{"token": "t-1"}, values)
	assert.Equal(t, []string{"gone"}, missing)
	assert.Equal(t, "t-1", r.Resolve("{{token}}"))
	assert.Equal(t, "t-1", r.Resolve("{{login.token}}"))
	assert.Equal(t, "{{gone}}", r.Resolve("{{gone}}"))
}
