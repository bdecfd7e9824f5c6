// Package logger wraps zerolog with the configuration and field helpers
// shared by the hitreq client and CLI.
package logger
