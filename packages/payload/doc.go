// Package payload serializes outgoing request bodies.
//
// Two encodings are supported, selected by the declared content type:
//   - JSON (application/json): any value, encoded through a JSONCodec
//   - Form (application/x-www-form-urlencoded): a flat string map, encoded
//     as percent-encoded key=value pairs joined by '&'
//
// Anything else is rejected with an UnsupportedPayloadError.
package payload
