package http

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// Params is an insertion-ordered multi-map of query parameters.
// The zero value is ready to use.
type Params struct {
	keys   []string
	values map[string][]string
}

// Add appends value to the values of key.
func (p *Params) Add(key, value string) {
	if p.values == nil {
		p.values = make(map[string][]string)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = append(p.values[key], value)
}

// Get returns the first value of key.
func (p *Params) Get(key string) string {
	if vs := p.values[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Values returns the values of key in insertion order.
func (p *Params) Values(key string) []string {
	return append([]string(nil), p.values[key]...)
}

// Keys returns the keys in insertion order.
func (p *Params) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Len returns the number of distinct keys.
func (p *Params) Len() int {
	return len(p.keys)
}

// Clone returns an independent copy.
func (p *Params) Clone() Params {
	var c Params
	for _, k := range p.keys {
		for _, v := range p.values[k] {
			c.Add(k, v)
		}
	}
	return c
}

// Encode renders key=value pairs joined by '&', repeating the key for each
// of its values. Both sides are percent-encoded with spaces as '+'.
func (p *Params) Encode() string {
	var b strings.Builder
	for _, k := range p.keys {
		ek := url.QueryEscape(k)
		for _, v := range p.values[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(ek)
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// Composer builds request URLs from a template, path parameters and query
// parameters. Templates are split into literal and {name} segments once and
// cached for the lifetime of the Composer.
type Composer struct {
	templates sync.Map // template -> []segment
}

// segment is literal text, or a {name} token when name is set.
type segment struct {
	text string
	name string
}

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// NewComposer creates a composer with an empty template cache.
func NewComposer() *Composer {
	return &Composer{}
}

// Compose replaces every {name} token in base with the value of name and
// appends the encoded query. Tokens without a matching parameter are left
// as they are. Substitution reads only the template, so a value that itself
// contains {other} is inserted verbatim. A base that already carries a query
// is extended with '&'.
func (c *Composer) Compose(base string, path map[string]string, query *Params) string {
	out := base
	if len(path) > 0 {
		var b strings.Builder
		for _, seg := range c.segments(base) {
			if v, ok := path[seg.name]; ok && seg.name != "" {
				b.WriteString(v)
				continue
			}
			b.WriteString(seg.text)
		}
		out = b.String()
	}

	if query == nil || query.Len() == 0 {
		return out
	}
	qs := query.Encode()
	if qs == "" {
		return out
	}
	if strings.Contains(out, "?") {
		return out + "&" + qs
	}
	return out + "?" + qs
}

func (c *Composer) segments(tmpl string) []segment {
	if segs, ok := c.templates.Load(tmpl); ok {
		return segs.([]segment)
	}
	var segs []segment
	last := 0
	for _, m := range placeholder.FindAllStringSubmatchIndex(tmpl, -1) {
		if m[0] > last {
			segs = append(segs, segment{text: tmpl[last:m[0]]})
		}
		segs = append(segs, segment{text: tmpl[m[0]:m[1]], name: tmpl[m[2]:m[3]]})
		last = m[1]
	}
	if last < len(tmpl) {
		segs = append(segs, segment{text: tmpl[last:]})
	}
	actual, _ := c.templates.LoadOrStore(tmpl, segs)
	return actual.([]segment)
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
