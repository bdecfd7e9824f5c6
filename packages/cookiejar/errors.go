package cookiejar

import (
	"errors"
	"fmt"
)

// MalformedCookieError reports a cookie fragment that could not be parsed.
type MalformedCookieError struct {
	Fragment string
	Err      error
}

func (e *MalformedCookieError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cookiejar: malformed cookie %q: %v", e.Fragment, e.Err)
	}
	return fmt.Sprintf("cookiejar: malformed cookie %q", e.Fragment)
}

func (e *MalformedCookieError) Unwrap() error {
	return e.Err
}

// IsMalformed reports whether err is a MalformedCookieError.
func IsMalformed(err error) bool {
	var e *MalformedCookieError
	return errors.As(err, &e)
}
