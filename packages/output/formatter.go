package output

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/abdul-hamid-achik/hitreq/packages/core/runner"
)

// Formatter renders the result of running a request file.
type Formatter interface {
	FormatResult(result *runner.RunResult) error
}

// New returns the formatter for format, which is "console" or "json".
func New(format string, w io.Writer, noColor, verbose bool) (Formatter, error) {
	switch format {
	case "", "console":
		return NewConsoleFormatter(WithWriter(w), WithNoColor(noColor || !IsTerminal(w)), WithVerbose(verbose)), nil
	case "json":
		return NewJSONFormatter(WithJSONWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want console or json)", format)
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
