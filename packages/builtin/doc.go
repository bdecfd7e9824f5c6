// Package builtin provides the functions callable from request files as
// {{name(args)}}, such as uuid(), timestamp() and userAgent().
package builtin
