package parser

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var validMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"HEAD":    true,
	"OPTIONS": true,
}

type rawFile struct {
	BaseURL   string         `yaml:"baseUrl"`
	Variables map[string]any `yaml:"variables"`
	Headers   yaml.Node      `yaml:"headers"`
	Requests  []yaml.Node    `yaml:"requests"`
}

type rawRequest struct {
	Name        string            `yaml:"name"`
	Method      string            `yaml:"method"`
	URL         string            `yaml:"url"`
	Path        map[string]string `yaml:"path"`
	Query       yaml.Node         `yaml:"query"`
	Headers     yaml.Node         `yaml:"headers"`
	Cookies     yaml.Node         `yaml:"cookies"`
	ContentType string            `yaml:"contentType"`
	Data        yaml.Node         `yaml:"data"`
	JSON        any               `yaml:"json"`
	Auth        *rawAuth          `yaml:"auth"`
	Binary      bool              `yaml:"binary"`
	Timeout     int               `yaml:"timeout"`
	Capture     yaml.Node         `yaml:"capture"`
	Expect      *rawExpect        `yaml:"expect"`
}

type rawAuth struct {
	Basic  string `yaml:"basic"`
	Bearer string `yaml:"bearer"`
}

type rawExpect struct {
	Status   yaml.Node   `yaml:"status"`
	Headers  yaml.Node   `yaml:"headers"`
	Contains string      `yaml:"contains"`
	Schema   string      `yaml:"schema"`
	Assert   []yaml.Node `yaml:"assert"`
}

type Parser struct {
	file string
}

func NewParser(filename string) *Parser {
	return &Parser{file: filename}
}

func ParseFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(content), path)
}

func Parse(input, filename string) (*File, error) {
	return NewParser(filename).Parse(input)
}

func (p *Parser) Parse(input string) (*File, error) {
	var raw rawFile
	if err := yaml.Unmarshal([]byte(input), &raw); err != nil {
		return nil, &ParseError{File: p.file, Message: err.Error()}
	}

	headers, err := p.pairs(&raw.Headers, "headers", false)
	if err != nil {
		return nil, err
	}

	file := &File{
		Path:      p.file,
		BaseURL:   strings.TrimSpace(raw.BaseURL),
		Variables: raw.Variables,
		Headers:   headers,
	}
	if file.Variables == nil {
		file.Variables = make(map[string]any)
	}
	if len(raw.Requests) == 0 {
		return nil, &ParseError{File: p.file, Message: "no requests defined"}
	}

	seen := make(map[string]int)
	for i := range raw.Requests {
		req, err := p.parseRequest(&raw.Requests[i], i, file.BaseURL)
		if err != nil {
			return nil, err
		}
		if line, dup := seen[req.Name]; dup {
			return nil, p.errorf(req.Line, 0, "duplicate request name %q (first defined on line %d)", req.Name, line)
		}
		seen[req.Name] = req.Line
		file.Requests = append(file.Requests, req)
	}
	return file, nil
}

func (p *Parser) parseRequest(node *yaml.Node, index int, baseURL string) (*Request, error) {
	var raw rawRequest
	if err := node.Decode(&raw); err != nil {
		return nil, p.errorf(node.Line, node.Column, "request %d: %v", index+1, err)
	}

	req := &Request{
		Name:        strings.TrimSpace(raw.Name),
		Method:      strings.ToUpper(strings.TrimSpace(raw.Method)),
		Path:        raw.Path,
		ContentType: raw.ContentType,
		JSON:        raw.JSON,
		Binary:      raw.Binary,
		Timeout:     raw.Timeout,
		Line:        node.Line,
	}
	if req.Name == "" {
		req.Name = fmt.Sprintf("request-%d", index+1)
	}
	if req.Method == "" {
		req.Method = "GET"
	}
	if !validMethods[req.Method] {
		return nil, p.errorf(node.Line, node.Column, "%s: unsupported method %q", req.Name, raw.Method)
	}

	rawURL := strings.TrimSpace(raw.URL)
	if rawURL == "" {
		return nil, p.errorf(node.Line, node.Column, "%s: url is required", req.Name)
	}
	req.URL = joinURL(baseURL, rawURL)

	var err error
	if req.Query, err = p.pairs(&raw.Query, "query", true); err != nil {
		return nil, err
	}
	if req.Headers, err = p.pairs(&raw.Headers, "headers", false); err != nil {
		return nil, err
	}
	if req.Cookies, err = p.pairs(&raw.Cookies, "cookies", false); err != nil {
		return nil, err
	}
	if req.Data, err = p.pairs(&raw.Data, "data", false); err != nil {
		return nil, err
	}
	if len(req.Data) > 0 && req.JSON != nil {
		return nil, p.errorf(node.Line, node.Column, "%s: data and json are mutually exclusive", req.Name)
	}
	if req.Timeout < 0 {
		return nil, p.errorf(node.Line, node.Column, "%s: timeout must not be negative", req.Name)
	}

	if raw.Auth != nil {
		if req.Auth, err = parseAuth(raw.Auth); err != nil {
			return nil, p.errorf(node.Line, node.Column, "%s: %v", req.Name, err)
		}
	}
	if req.Captures, err = p.parseCaptures(&raw.Capture); err != nil {
		return nil, err
	}
	if raw.Expect != nil {
		if req.Assertions, err = p.parseExpect(raw.Expect); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func parseAuth(raw *rawAuth) (*Auth, error) {
	switch {
	case raw.Basic != "" && raw.Bearer != "":
		return nil, errors.New("auth: basic and bearer are mutually exclusive")
	case raw.Basic != "":
		user, pass, ok := strings.Cut(raw.Basic, ":")
		if !ok {
			return nil, errors.New("auth: basic must be user:password")
		}
		return &Auth{Type: AuthBasic, Username: user, Password: pass}, nil
	case raw.Bearer != "":
		return &Auth{Type: AuthBearer, Token: raw.Bearer}, nil
	default:
		return nil, nil
	}
}

// pairs decodes an ordered mapping. With allowList a sequence value yields
// one pair per item under the same key.
func (p *Parser) pairs(node *yaml.Node, field string, allowList bool) (Pairs, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, p.errorf(node.Line, node.Column, "%s must be a mapping", field)
	}

	var out Pairs
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch value.Kind {
		case yaml.ScalarNode:
			out = append(out, Pair{Key: key.Value, Value: scalar(value)})
		case yaml.SequenceNode:
			if !allowList {
				return nil, p.errorf(value.Line, value.Column, "%s.%s must be a scalar", field, key.Value)
			}
			for _, item := range value.Content {
				if item.Kind != yaml.ScalarNode {
					return nil, p.errorf(item.Line, item.Column, "%s.%s items must be scalars", field, key.Value)
				}
				out = append(out, Pair{Key: key.Value, Value: scalar(item)})
			}
		default:
			return nil, p.errorf(value.Line, value.Column, "%s.%s must be a scalar", field, key.Value)
		}
	}
	return out, nil
}

func scalar(n *yaml.Node) string {
	if n.Tag == "!!null" {
		return ""
	}
	return n.Value
}

func (p *Parser) parseCaptures(node *yaml.Node) ([]*Capture, error) {
	pairs, err := p.pairs(node, "capture", false)
	if err != nil {
		return nil, err
	}
	captures := make([]*Capture, 0, len(pairs))
	for i, kv := range pairs {
		c, err := ParseCapture(kv.Key, kv.Value)
		if err != nil {
			keyNode := node.Content[2*i]
			return nil, p.errorf(keyNode.Line, keyNode.Column, "%v", err)
		}
		c.Line = node.Content[2*i].Line
		captures = append(captures, c)
	}
	return captures, nil
}

// ParseCapture reads a capture source: status, duration, "header Name",
// "cookie Name", "body" or a gjson path with an optional "body." prefix.
func ParseCapture(name, source string) (*Capture, error) {
	source = strings.TrimSpace(source)
	if name == "" {
		return nil, errors.New("capture name is required")
	}
	if source == "" {
		return nil, fmt.Errorf("capture %s: source is required", name)
	}

	c := &Capture{Name: name}
	kind, arg := splitSubject(source)
	switch kind {
	case "status":
		c.Source = CaptureStatus
	case "duration":
		c.Source = CaptureDuration
	case "header", "cookie":
		if arg == "" {
			return nil, fmt.Errorf("capture %s: %s name is required", name, kind)
		}
		c.Source = CaptureHeader
		if kind == "cookie" {
			c.Source = CaptureCookie
		}
		c.Path = arg
	default:
		c.Source = CaptureBody
		if source != "body" {
			c.Path = strings.TrimPrefix(source, "body.")
		}
	}
	return c, nil
}

// splitSubject separates "header Name" or "header:Name" into its parts.
func splitSubject(s string) (string, string) {
	for _, kind := range []string{"header", "cookie"} {
		if rest, ok := strings.CutPrefix(s, kind); ok && (rest == "" || rest[0] == ' ' || rest[0] == ':') {
			return kind, strings.TrimSpace(strings.TrimPrefix(rest, ":"))
		}
	}
	return s, ""
}

func (p *Parser) parseExpect(raw *rawExpect) ([]*Assertion, error) {
	var out []*Assertion

	switch raw.Status.Kind {
	case 0:
	case yaml.ScalarNode:
		var status int
		if err := raw.Status.Decode(&status); err != nil {
			return nil, p.errorf(raw.Status.Line, raw.Status.Column, "expect.status: %v", err)
		}
		out = append(out, &Assertion{Subject: "status", Operator: OpEquals, Expected: status, Line: raw.Status.Line})
	case yaml.SequenceNode:
		var statuses []int
		if err := raw.Status.Decode(&statuses); err != nil {
			return nil, p.errorf(raw.Status.Line, raw.Status.Column, "expect.status: %v", err)
		}
		expected := make([]any, len(statuses))
		for i, s := range statuses {
			expected[i] = s
		}
		out = append(out, &Assertion{Subject: "status", Operator: OpIn, Expected: expected, Line: raw.Status.Line})
	default:
		return nil, p.errorf(raw.Status.Line, raw.Status.Column, "expect.status must be a number or a list")
	}

	headers, err := p.pairs(&raw.Headers, "expect.headers", false)
	if err != nil {
		return nil, err
	}
	for _, kv := range headers {
		out = append(out, &Assertion{Subject: "header " + kv.Key, Operator: OpEquals, Expected: kv.Value, Line: raw.Headers.Line})
	}
	if raw.Contains != "" {
		out = append(out, &Assertion{Subject: "body", Operator: OpContains, Expected: raw.Contains})
	}
	if raw.Schema != "" {
		out = append(out, &Assertion{Subject: "body", Operator: OpSchema, Expected: raw.Schema})
	}

	for i := range raw.Assert {
		n := &raw.Assert[i]
		if n.Kind != yaml.ScalarNode {
			return nil, p.errorf(n.Line, n.Column, "expect.assert items must be strings")
		}
		a, err := ParseAssertion(n.Value)
		if err != nil {
			return nil, p.errorf(n.Line, n.Column, "%v", err)
		}
		a.Line = n.Line
		out = append(out, a)
	}
	return out, nil
}

// ParseAssertion reads "subject [operator] [expected]". A missing operator
// means equality. The expected value is decoded as a YAML scalar, list or
// flow map, falling back to the raw text.
func ParseAssertion(s string) (*Assertion, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("empty assertion")
	}

	subject, rest := nextField(s)
	if subject == "header" || subject == "cookie" {
		var name string
		name, rest = nextField(rest)
		if name == "" {
			return nil, fmt.Errorf("assertion %q: %s name is required", s, subject)
		}
		subject += " " + name
	}

	a := &Assertion{Subject: subject, Operator: OpEquals}
	if word, after := nextField(rest); word != "" {
		if op, ok := ParseOperator(word); ok {
			a.Operator = op
			rest = after
		}
	}

	if a.Operator == OpExists || a.Operator == OpNotExists {
		if strings.TrimSpace(rest) != "" {
			return nil, fmt.Errorf("assertion %q: %s takes no value", s, a.Operator)
		}
		return a, nil
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil, fmt.Errorf("assertion %q: expected value is required", s)
	}
	a.Expected = expectedValue(rest)
	return a, nil
}

func expectedValue(s string) any {
	if strings.Contains(s, "{{") {
		return strings.Trim(s, `"'`)
	}
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func nextField(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

func joinURL(base, ref string) string {
	if base == "" || strings.Contains(ref, "://") || strings.HasPrefix(ref, "{{") {
		return ref
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}

func (p *Parser) errorf(line, col int, format string, args ...any) error {
	return &ParseError{File: p.file, Line: line, Column: col, Message: fmt.Sprintf(format, args...)}
}
