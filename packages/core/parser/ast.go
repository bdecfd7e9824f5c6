package parser

import (
	"fmt"
	"strings"
)

type File struct {
	Path      string
	BaseURL   string
	Variables map[string]any
	Headers   Pairs
	Requests  []*Request
}

// Request returns the request named name.
func (f *File) Request(name string) (*Request, bool) {
	for _, r := range f.Requests {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

type Request struct {
	Name        string
	Method      string
	URL         string
	Path        map[string]string
	Query       Pairs
	Headers     Pairs
	Cookies     Pairs
	ContentType string
	Data        Pairs
	JSON        any
	Auth        *Auth
	Binary      bool
	Timeout     int
	Captures    []*Capture
	Assertions  []*Assertion
	Line        int
}

// HasBody reports whether the request declares form data or a JSON body.
func (r *Request) HasBody() bool {
	return len(r.Data) > 0 || r.JSON != nil
}

// Pair is one entry of an ordered YAML mapping.
type Pair struct {
	Key   string
	Value string
}

// Pairs keeps the order in which a YAML mapping was written.
type Pairs []Pair

// Get returns the first value stored under key.
func (p Pairs) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Map flattens the pairs. Later duplicates win.
func (p Pairs) Map() map[string]string {
	out := make(map[string]string, len(p))
	for _, kv := range p {
		out[kv.Key] = kv.Value
	}
	return out
}

type AuthType int

const (
	AuthNone AuthType = iota
	AuthBasic
	AuthBearer
)

func (t AuthType) String() string {
	switch t {
	case AuthBasic:
		return "basic"
	case AuthBearer:
		return "bearer"
	default:
		return "none"
	}
}

type Auth struct {
	Type     AuthType
	Username string
	Password string
	Token    string
}

type Assertion struct {
	Subject  string
	Operator AssertionOperator
	Expected any
	Line     int
}

func (a *Assertion) String() string {
	if a.Operator == OpExists || a.Operator == OpNotExists {
		return a.Subject + " " + a.Operator.String()
	}
	return fmt.Sprintf("%s %s %v", a.Subject, a.Operator, a.Expected)
}

type AssertionOperator int

const (
	OpEquals AssertionOperator = iota
	OpNotEquals
	OpGreaterThan
	OpGreaterOrEqual
	OpLessThan
	OpLessOrEqual
	OpContains
	OpNotContains
	OpStartsWith
	OpEndsWith
	OpMatches
	OpExists
	OpNotExists
	OpLength
	OpIncludes
	OpNotIncludes
	OpIn
	OpNotIn
	OpType
	OpEach
	OpSchema
)

var operatorNames = map[AssertionOperator]string{
	OpEquals:         "==",
	OpNotEquals:      "!=",
	OpGreaterThan:    ">",
	OpGreaterOrEqual: ">=",
	OpLessThan:       "<",
	OpLessOrEqual:    "<=",
	OpContains:       "contains",
	OpNotContains:    "!contains",
	OpStartsWith:     "startsWith",
	OpEndsWith:       "endsWith",
	OpMatches:        "matches",
	OpExists:         "exists",
	OpNotExists:      "!exists",
	OpLength:         "length",
	OpIncludes:       "includes",
	OpNotIncludes:    "!includes",
	OpIn:             "in",
	OpNotIn:          "!in",
	OpType:           "type",
	OpEach:           "each",
	OpSchema:         "schema",
}

func (op AssertionOperator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return "unknown"
}

// ParseOperator looks up an operator by its written form, ignoring case.
func ParseOperator(s string) (AssertionOperator, bool) {
	for op, name := range operatorNames {
		if strings.EqualFold(name, s) {
			return op, true
		}
	}
	return 0, false
}

type Capture struct {
	Name   string
	Source CaptureSource
	Path   string
	Line   int
}

type CaptureSource int

const (
	CaptureBody CaptureSource = iota
	CaptureHeader
	CaptureCookie
	CaptureStatus
	CaptureDuration
)

func (s CaptureSource) String() string {
	switch s {
	case CaptureBody:
		return "body"
	case CaptureHeader:
		return "header"
	case CaptureCookie:
		return "cookie"
	case CaptureStatus:
		return "status"
	case CaptureDuration:
		return "duration"
	default:
		return "unknown"
	}
}

type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		if e.File != "" {
			return e.File + ": " + e.Message
		}
		return e.Message
	}
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}
