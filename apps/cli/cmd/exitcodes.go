package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/hitreq/packages/core/parser"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

// Exit codes for hitreq CLI
const (
	// ExitSuccess indicates every request met its expectations
	ExitSuccess = 0

	// ExitTestFailure indicates one or more expectations failed
	ExitTestFailure = 1

	// ExitParseError indicates a request file could not be parsed
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the exit code chosen by a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func usageError(err error) error { return withCode(ExitUsageError, err) }
func configError(err error) error { return withCode(ExitConfigError, err) }
func expectationError(err error) error { return withCode(ExitTestFailure, err) }

// exitCode maps err to a process exit code. An explicit code wins, then the
// error's kind decides.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return ExitParseError
	}
	if http.IsTransport(err) {
		return ExitNetworkError
	}
	return ExitTestFailure
}
