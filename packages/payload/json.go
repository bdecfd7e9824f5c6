package payload

import (
	json "github.com/goccy/go-json"
)

// JSONCodec encodes and decodes JSON documents.
type JSONCodec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// DefaultJSON is the codec used when none is configured.
var DefaultJSON JSONCodec = goJSON{}

type goJSON struct{}

func (goJSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (goJSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
