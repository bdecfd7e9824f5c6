package cookiejar

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Jar is a set of cookies addressed by name, domain and path.
// It is safe for concurrent use.
type Jar struct {
	mu      sync.Mutex
	cookies []*http.Cookie
	now     func() time.Time
}

// New creates an empty jar.
func New() *Jar {
	return &Jar{now: time.Now}
}

// Len returns the number of stored cookies.
func (j *Jar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pruneLocked()
	return len(j.cookies)
}

// Cookies returns copies of the stored cookies in insertion order.
func (j *Jar) Cookies() []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pruneLocked()

	out := make([]*http.Cookie, len(j.cookies))
	for i, c := range j.cookies {
		cp := *c
		out[i] = &cp
	}
	return out
}

// Get returns the value of the first cookie named name.
func (j *Jar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pruneLocked()

	for _, c := range j.cookies {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// Set stores a plain name=value cookie with no domain or path.
func (j *Jar) Set(name, value string) {
	j.Add(&http.Cookie{Name: name, Value: value})
}

// Add inserts c, replacing any cookie with the same name, domain and path.
// An expired cookie removes its match instead. A positive Max-Age is stored
// as an absolute Expires so it survives persistence.
func (j *Jar) Add(c *http.Cookie) {
	if c == nil || c.Name == "" {
		return
	}
	cp := *c
	cp.Raw = ""

	j.mu.Lock()
	defer j.mu.Unlock()

	if cp.MaxAge > 0 {
		cp.Expires = j.clock()().Add(time.Duration(cp.MaxAge) * time.Second)
		cp.MaxAge = 0
	}

	idx := j.indexLocked(&cp)
	if j.expired(&cp) {
		if idx >= 0 {
			j.cookies = append(j.cookies[:idx], j.cookies[idx+1:]...)
		}
		return
	}
	if idx >= 0 {
		j.cookies[idx] = &cp
		return
	}
	j.cookies = append(j.cookies, &cp)
}

// Clear removes every cookie.
func (j *Jar) Clear() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies = nil
}

// Header renders the cookies as name=value pairs joined by ';'.
// It returns false when the jar is empty.
func (j *Jar) Header() (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.pruneLocked()

	if len(j.cookies) == 0 {
		return "", false
	}
	parts := make([]string, len(j.cookies))
	for i, c := range j.cookies {
		parts[i] = c.Name + "=" + c.Value
	}
	return strings.Join(parts, ";"), true
}

// AddFragment parses a request-style "a=1; b=2" fragment or a single
// Set-Cookie line and stores the result. Valid pieces are stored even when
// another piece is malformed; the first failure is returned along with the
// number of cookies added.
func (j *Jar) AddFragment(fragment string) (int, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return 0, nil
	}
	if looksLikeSetCookie(fragment) {
		if err := j.SetCookie(fragment); err != nil {
			return 0, err
		}
		return 1, nil
	}

	added := 0
	var first error
	for _, piece := range strings.Split(fragment, ";") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		parsed, err := http.ParseCookie(piece)
		if err != nil {
			if first == nil {
				first = &MalformedCookieError{Fragment: piece, Err: err}
			}
			continue
		}
		for _, c := range parsed {
			j.Add(c)
			added++
		}
	}
	return added, first
}

// SetCookie parses one Set-Cookie header value and stores the cookie.
func (j *Jar) SetCookie(line string) error {
	c, err := http.ParseSetCookie(line)
	if err != nil {
		return &MalformedCookieError{Fragment: line, Err: err}
	}
	j.Add(c)
	return nil
}

func (j *Jar) indexLocked(c *http.Cookie) int {
	for i, existing := range j.cookies {
		if existing.Name == c.Name &&
			strings.EqualFold(existing.Domain, c.Domain) &&
			existing.Path == c.Path {
			return i
		}
	}
	return -1
}

func (j *Jar) clock() func() time.Time {
	if j.now != nil {
		return j.now
	}
	return time.Now
}

func (j *Jar) expired(c *http.Cookie) bool {
	if c.MaxAge < 0 {
		return true
	}
	if c.Expires.IsZero() {
		return false
	}
	return !c.Expires.After(j.clock()())
}

// pruneLocked drops cookies whose expiry has passed.
func (j *Jar) pruneLocked() {
	kept := j.cookies[:0]
	for _, c := range j.cookies {
		if !j.expired(c) {
			kept = append(kept, c)
		}
	}
	clear(j.cookies[len(kept):])
	j.cookies = kept
}

var setCookieAttributes = []string{
	"expires", "max-age", "domain", "path", "secure", "httponly", "samesite", "partitioned",
}

// looksLikeSetCookie reports whether any ';'-separated attribute after the
// first pair is a Set-Cookie attribute name.
func looksLikeSetCookie(fragment string) bool {
	parts := strings.Split(fragment, ";")
	for _, p := range parts[1:] {
		name, _, _ := strings.Cut(strings.TrimSpace(p), "=")
		name = strings.ToLower(strings.TrimSpace(name))
		for _, attr := range setCookieAttributes {
			if name == attr {
				return true
			}
		}
	}
	return false
}

// ErrNilJar is returned by Store operations given a nil jar.
var ErrNilJar = errors.New("cookiejar: nil jar")
