package env

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/hitreq/packages/builtin"
	"github.com/abdul-hamid-achik/hitreq/packages/logger"
)

var variablePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Resolver substitutes {{...}} expressions. It is safe for concurrent use.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]any
	captures  map[string]any
	funcs     *builtin.Registry
	log       *logger.Logger
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]any),
		captures:  make(map[string]any),
		funcs:     builtin.NewRegistry(),
		log:       logger.Nop(),
	}
}

// SetLogger sets where unresolved expressions are reported.
func (r *Resolver) SetLogger(l *logger.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l != nil {
		r.log = l.WithComponent("env")
	}
}

func (r *Resolver) SetVariables(vars map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

// SetDefaults stores each variable that is not defined yet.
func (r *Resolver) SetDefaults(vars map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		if _, ok := r.variables[k]; !ok {
			r.variables[k] = v
		}
	}
}

func (r *Resolver) SetVariable(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

// SetCapture stores a captured value under both "request.name" and "name".
func (r *Resolver) SetCapture(requestName, captureName string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if requestName != "" {
		r.captures[requestName+"."+captureName] = value
	}
	r.captures[captureName] = value
}

// GetVariable looks name up in captures, then variables.
func (r *Resolver) GetVariable(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(name)
}

func (r *Resolver) lookupLocked(name string) (any, bool) {
	if v, ok := r.captures[name]; ok {
		return v, true
	}
	if v, ok := r.variables[name]; ok {
		return v, true
	}
	return nil, false
}

// Resolve replaces every resolvable expression in input. Unresolved
// expressions are left as they are.
func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		if v, ok := r.eval(strings.TrimSpace(match[2 : len(match)-2])); ok {
			return v
		}
		return match
	})
}

func (r *Resolver) eval(expr string) (string, bool) {
	if name, isEnv := strings.CutPrefix(expr, "$"); isEnv {
		if val, ok := os.LookupEnv(name); ok {
			return val, true
		}
		r.warn("unresolved environment variable", "$"+name)
		return "", false
	}

	if strings.Contains(expr, "(") {
		val, ok, err := r.funcs.Call(expr)
		if err != nil {
			r.log.Warn().Err(err).Str("expr", expr).Msg("function call failed")
			return "", false
		}
		if !ok {
			r.warn("unresolved function call", expr)
		}
		return val, ok
	}

	r.mu.RLock()
	val, ok := r.lookupLocked(expr)
	r.mu.RUnlock()
	if !ok {
		r.warn("unresolved variable", expr)
		return "", false
	}
	return fmt.Sprintf("%v", val), true
}

func (r *Resolver) warn(msg, expr string) {
	r.mu.RLock()
	log := r.log
	r.mu.RUnlock()
	log.Warn().Str("expr", expr).Msg(msg)
}

// ResolveMap resolves every value of values.
func (r *Resolver) ResolveMap(values map[string]string) map[string]string {
	if values == nil {
		return nil
	}
	result := make(map[string]string, len(values))
	for k, v := range values {
		result[k] = r.Resolve(v)
	}
	return result
}

// ResolveValue resolves strings nested in maps and slices, as decoded from
// YAML or JSON.
func (r *Resolver) ResolveValue(v any) any {
	switch val := v.(type) {
	case string:
		return r.Resolve(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = r.ResolveValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = r.ResolveValue(item)
		}
		return out
	default:
		return v
	}
}

// Unresolved returns the expressions in input that cannot be resolved.
func (r *Resolver) Unresolved(input string) []string {
	var out []string
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		expr := strings.TrimSpace(m[1])
		if strings.HasPrefix(expr, "$") || strings.Contains(expr, "(") {
			continue
		}
		r.mu.RLock()
		_, ok := r.lookupLocked(expr)
		r.mu.RUnlock()
		if !ok {
			out = append(out, expr)
		}
	}
	return out
}

func (r *Resolver) Clone() *Resolver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := NewResolver()
	clone.log = r.log
	for k, v := range r.variables {
		clone.variables[k] = v
	}
	for k, v := range r.captures {
		clone.captures[k] = v
	}
	return clone
}
