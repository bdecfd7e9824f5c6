package capture

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/hitreq/packages/core/env"
	"github.com/abdul-hamid-achik/hitreq/packages/core/parser"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

// Extractor reads capture values out of one response.
type Extractor struct {
	resp *http.Response
	body gjson.Result
	json bool
}

type source func(e *Extractor, path string) (any, bool)

var sources = map[parser.CaptureSource]source{
	parser.CaptureBody:   (*Extractor).fromBody,
	parser.CaptureHeader: (*Extractor).fromHeader,
	parser.CaptureCookie: func(e *Extractor, name string) (any, bool) {
		v, ok := e.resp.Cookie(name)
		return v, ok
	},
	parser.CaptureStatus: func(e *Extractor, _ string) (any, bool) {
		return e.resp.StatusCode, true
	},
	parser.CaptureDuration: func(e *Extractor, _ string) (any, bool) {
		return e.resp.DurationMs(), true
	},
}

func NewExtractor(resp *http.Response) *Extractor {
	e := &Extractor{resp: resp}
	if raw := resp.Body(); resp.IsJSON() || gjson.ValidBytes(raw) {
		e.body = gjson.ParseBytes(raw)
		e.json = e.body.Exists()
	}
	return e
}

// Extract returns the value c names and whether one was found.
func (e *Extractor) Extract(c *parser.Capture) (any, bool) {
	fn, ok := sources[c.Source]
	if !ok {
		return nil, false
	}
	return fn(e, c.Path)
}

// fromBody returns the whole body for an empty path. Non-JSON bodies have
// no paths.
func (e *Extractor) fromBody(path string) (any, bool) {
	switch {
	case path == "" && e.json:
		return e.body.Value(), true
	case path == "":
		return e.resp.String(), true
	case !e.json:
		return nil, false
	}
	path = strings.TrimPrefix(bracketIndex.ReplaceAllString(path, ".$1"), ".")
	v := e.body.Get(path)
	if !v.Exists() {
		return nil, false
	}
	return v.Value(), true
}

func (e *Extractor) fromHeader(name string) (any, bool) {
	if v := e.resp.Header(name); v != "" {
		return v, true
	}
	return nil, false
}

// ExtractAll returns the captured values and the names that found nothing.
func ExtractAll(resp *http.Response, captures []*parser.Capture) (map[string]any, []string) {
	e := NewExtractor(resp)
	values := make(map[string]any, len(captures))
	var missing []string
	for _, c := range captures {
		v, ok := e.Extract(c)
		if !ok {
			missing = append(missing, c.Name)
			continue
		}
		values[c.Name] = v
	}
	return values, missing
}

// Apply extracts captures and stores them on the resolver under both
// requestName.capture and capture. Captures are set in declaration order so
// a later capture with the same name wins.
func Apply(r *env.Resolver, requestName string, resp *http.Response, captures []*parser.Capture) (map[string]any, []string) {
	values, missing := ExtractAll(resp, captures)
	for _, c := range captures {
		if v, ok := values[c.Name]; ok {
			r.SetCapture(requestName, c.Name, v)
		}
	}
	return values, missing
}
