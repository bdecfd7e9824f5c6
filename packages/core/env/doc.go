// Package env handles variables for hitreq request files.
//
// It provides functionality for:
//   - Loading .env files
//   - Variable interpolation using {{variable}} syntax
//   - {{$NAME}} lookups in the process environment
//   - Built-in function calls such as {{uuid()}}
//   - Values captured from earlier responses
package env
