// Package http builds and executes HTTP requests for hitreq.
//
// A Request accumulates the method, URL template, path and query
// parameters, headers, cookies and body through chained setters. A Client
// turns it into one wire exchange over a Transport and returns a Response:
//   - {name} path placeholders and ordered query parameters
//   - JSON or form-urlencoded bodies
//   - a cookie jar shared across requests
//   - gzip decoding and binary or text bodies
//   - success, error and complete callbacks
//
// Redirects are never followed and nothing is retried.
package http
