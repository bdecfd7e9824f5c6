package http

import (
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComposer_Compose(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		path     map[string]string
		query    func() *Params
		expected string
	}{
		{
			name:     "path params replaced",
			base:     "https://api.test/users/{id}/posts/{post}",
			path:     map[string]string{"id": "42", "post": "7"},
			expected: "https://api.test/users/42/posts/7",
		},
		{
			name:     "unmatched token left verbatim",
			base:     "https://api.test/users/{id}/{missing}",
			path:     map[string]string{"id": "1", "unused": "x"},
			expected: "https://api.test/users/1/{missing}",
		},
		{
			name:     "every occurrence replaced",
			base:     "https://api.test/{v}/a/{v}",
			path:     map[string]string{"v": "2"},
			expected: "https://api.test/2/a/2",
		},
		{
			name:     "regexp characters in name and value",
			base:     "https://api.test/{a.b}/{a+b}",
			path:     map[string]string{"a.b": "$1", "a+b": `\x`},
			expected: `https://api.test/$1/\x`,
		},
		{
			name:     "values are not substituted again",
			base:     "https://api.test/{a}/{b}",
			path:     map[string]string{"a": "{b}", "b": "{a}"},
			expected: "https://api.test/{b}/{a}",
		},
		{
			name:     "no path params keeps template",
			base:     "https://api.test/{id}",
			expected: "https://api.test/{id}",
		},
		{
			name: "query appended in insertion order",
			base: "https://api.test/search",
			query: func() *Params {
				var p Params
				p.Add("q", "go lang")
				p.Add("tag", "a")
				p.Add("tag", "b&c")
				return &p
			},
			expected: "https://api.test/search?q=go+lang&tag=a&tag=b%26c",
		},
		{
			name: "existing query extended",
			base: "https://api.test/search?page=1",
			query: func() *Params {
				var p Params
				p.Add("q", "x")
				return &p
			},
			expected: "https://api.test/search?page=1&q=x",
		},
		{
			name:     "empty query adds nothing",
			base:     "https://api.test/",
			query:    func() *Params { return &Params{} },
			expected: "https://api.test/",
		},
	}

	c := NewComposer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q *Params
			if tt.query != nil {
				q = tt.query()
			}
			assert.Equal(t, tt.expected, c.Compose(tt.base, tt.path, q))
		})
	}
}

func TestComposer_QueryRoundTrip(t *testing.T) {
	var p Params
	p.Add("name", "José Ñ")
	p.Add("list", "1")
	p.Add("list", "2 3")
	p.Add("list", "=&?")
	p.Add("empty", "")

	out := NewComposer().Compose("http://h/x", nil, &p)
	idx := strings.Index(out, "?")
	require.Greater(t, idx, 0)

	decoded, err := url.ParseQuery(out[idx+1:])
	require.NoError(t, err)

	for _, k := range p.Keys() {
		assert.Equal(t, p.Values(k), decoded[k], "key %s", k)
	}
	assert.Len(t, decoded, p.Len())
}

func TestComposer_ConcurrentUse(t *testing.T) {
	c := NewComposer()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := c.Compose("http://h/{id}/{name}", map[string]string{"id": "1", "name": "n"}, nil)
			assert.Equal(t, "http://h/1/n", out)
		}()
	}
	wg.Wait()
}

func TestParams(t *testing.T) {
	var p Params
	p.Add("b", "1")
	p.Add("a", "2")
	p.Add("b", "3")

	assert.Equal(t, []string{"b", "a"}, p.Keys())
	assert.Equal(t, []string{"1", "3"}, p.Values("b"))
	assert.Equal(t, "1", p.Get("b"))
	assert.Equal(t, "", p.Get("missing"))

	c := p.Clone()
	c.Add("b", "4")
	assert.Equal(t, []string{"1", "3"}, p.Values("b"))
	assert.Equal(t, "b=1&b=3&a=2", p.Encode())
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid http URL",
			url:     "http://example.com/path",
			wantErr: false,
		},
		{
			name:    "valid https URL",
			url:     "https://example.com/path",
			wantErr: false,
		},
		{
			name:    "invalid scheme",
			url:     "ftp://example.com",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing scheme",
			url:     "example.com/path",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing host",
			url:     "http:///path",
			wantErr: true,
			errMsg:  "URL must have a host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
