package payload

import (
	"errors"
	"fmt"
)

// UnsupportedPayloadError reports a body that cannot be serialized for the
// declared content type.
type UnsupportedPayloadError struct {
	ContentType string
	Reason      string
}

func (e *UnsupportedPayloadError) Error() string {
	return fmt.Sprintf("payload: unsupported payload for %q: %s", e.ContentType, e.Reason)
}

// IsUnsupported reports whether err is an UnsupportedPayloadError.
func IsUnsupported(err error) bool {
	var e *UnsupportedPayloadError
	return errors.As(err, &e)
}
