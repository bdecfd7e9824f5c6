// Package cookiejar keeps the cookies of an HTTP session.
//
// A Jar is shared by reference between a request and the responses it
// produces, so cookies set by one response are sent by the next request
// that reuses the jar. Jars can be persisted to SQLite with a Store.
package cookiejar
