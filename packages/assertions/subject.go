package assertions

import (
	"errors"
	"regexp"
	"strings"
)

var (
	bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

	errNotJSON = errors.New("response body is not JSON")
)

// lookup returns the value a subject names. Absent headers, cookies and body
// paths yield nil so that exists and !exists can test for them.
func (e *Evaluator) lookup(subject string) (any, error) {
	kind, arg, _ := strings.Cut(subject, " ")
	arg = strings.TrimSpace(arg)

	switch kind {
	case "status":
		return e.response.StatusCode, nil
	case "duration":
		return e.response.DurationMs(), nil
	case "header":
		if arg == "" {
			return e.response.Headers, nil
		}
		if len(e.response.HeaderValues(arg)) == 0 {
			return nil, nil
		}
		return e.response.Header(arg), nil
	case "cookie":
		if v, ok := e.response.Cookie(arg); ok {
			return v, nil
		}
		return nil, nil
	case "jsonpath":
		if !e.isJSON {
			return nil, errNotJSON
		}
		return e.path(arg), nil
	}

	if subject == "body" || strings.HasPrefix(subject, "body.") || strings.HasPrefix(subject, "body[") {
		if !e.isJSON {
			return e.response.String(), nil
		}
		rest := strings.TrimPrefix(subject, "body")
		if rest == "" {
			return e.body.Value(), nil
		}
		return e.path(rest), nil
	}

	// A bare path is read from the body.
	if !e.isJSON {
		return e.response.String(), nil
	}
	return e.path(subject), nil
}

func (e *Evaluator) path(p string) any {
	v := e.body.Get(gjsonPath(p))
	if !v.Exists() {
		return nil
	}
	return v.Value()
}

// gjsonPath rewrites items[0].tags[1] as items.0.tags.1.
func gjsonPath(p string) string {
	p = bracketIndex.ReplaceAllString(p, ".$1")
	return strings.TrimPrefix(p, ".")
}
