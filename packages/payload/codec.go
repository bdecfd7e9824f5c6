package payload

import (
	"fmt"
	"mime"
	"strings"
)

const (
	// JSON is the content type sent for JSON bodies.
	JSON = "application/json; charset=utf-8"
	// FormURLEncoded is the default content type for request bodies.
	FormURLEncoded = "application/x-www-form-urlencoded; charset=UTF-8"
)

// Kind identifies one of the supported body encodings.
type Kind int

const (
	// KindUnknown is any content type outside the supported set.
	KindUnknown Kind = iota
	// KindJSON encodes arbitrary values as JSON.
	KindJSON
	// KindForm encodes flat string maps as application/x-www-form-urlencoded.
	KindForm
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindJSON:
		return "json"
	case KindForm:
		return "form"
	default:
		return "unknown"
	}
}

// KindOf classifies a content type by its media type, ignoring parameters.
func KindOf(contentType string) Kind {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	switch mediaType {
	case "application/json":
		return KindJSON
	case "application/x-www-form-urlencoded":
		return KindForm
	default:
		return KindUnknown
	}
}

// Codec serializes request bodies.
type Codec struct {
	json JSONCodec
}

// NewCodec creates a codec. A nil JSONCodec selects DefaultJSON.
func NewCodec(jc JSONCodec) *Codec {
	if jc == nil {
		jc = DefaultJSON
	}
	return &Codec{json: jc}
}

// JSONCodec returns the codec used for JSON bodies.
func (c *Codec) JSONCodec() JSONCodec {
	return c.json
}

// Serialize encodes body for contentType. A nil body yields nil bytes and no
// error.
func (c *Codec) Serialize(body any, contentType string) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	switch KindOf(contentType) {
	case KindJSON:
		data, err := c.json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("payload: encode json: %w", err)
		}
		return data, nil
	case KindForm:
		form, ok := asForm(body)
		if !ok {
			return nil, &UnsupportedPayloadError{
				ContentType: contentType,
				Reason:      fmt.Sprintf("form body must be a flat string map, got %T", body),
			}
		}
		return []byte(form.Encode()), nil
	default:
		return nil, &UnsupportedPayloadError{
			ContentType: contentType,
			Reason:      "content type is neither json nor form",
		}
	}
}

func asForm(body any) (*Form, bool) {
	switch v := body.(type) {
	case *Form:
		if v == nil {
			return NewForm(), true
		}
		return v, true
	case Form:
		return &v, true
	case map[string]string:
		return FormFromMap(v), true
	default:
		return nil, false
	}
}
