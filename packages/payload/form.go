package payload

import (
	"bytes"
	"net/url"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
)

// Form is an insertion-ordered string map used for form-encoded bodies.
// The zero value is ready to use.
type Form struct {
	keys   []string
	values map[string]string
}

// NewForm creates an empty form.
func NewForm() *Form {
	return &Form{values: make(map[string]string)}
}

// FormFromMap copies m into a new form with keys in sorted order.
func FormFromMap(m map[string]string) *Form {
	f := NewForm()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f.Set(k, m[k])
	}
	return f
}

// Set stores value under key. An existing key keeps its position.
func (f *Form) Set(key, value string) {
	if f.values == nil {
		f.values = make(map[string]string)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the value stored under key.
func (f *Form) Get(key string) (string, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Len returns the number of entries.
func (f *Form) Len() int {
	return len(f.keys)
}

// Keys returns the keys in insertion order.
func (f *Form) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Map returns a copy of the entries.
func (f *Form) Map() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy of the form.
func (f *Form) Clone() *Form {
	c := NewForm()
	for _, k := range f.keys {
		c.Set(k, f.values[k])
	}
	return c
}

// Encode renders the form as key=value pairs joined by '&', both sides
// percent-encoded with spaces as '+'.
func (f *Form) Encode() string {
	var b strings.Builder
	for i, k := range f.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f.values[k]))
	}
	return b.String()
}

// MarshalJSON renders the form as a JSON object of strings in insertion
// order, so form data sent with a JSON content type keeps its fields.
func (f Form) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}
