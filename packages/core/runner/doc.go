// Package runner executes hitreq request files.
//
// Requests run in file order over one cookie jar, so a session cookie set by
// an early request is sent by the later ones. Captured values feed the
// variable resolver for the requests that follow, and each request's
// expectations decide whether it passed.
package runner
