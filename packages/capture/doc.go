// Package capture lifts values out of a response so later requests in the
// same file can reference them as {{name}} or {{request.name}}.
//
// Sources are gjson body paths, response headers, jar cookies, the status
// code and the request duration.
package capture
