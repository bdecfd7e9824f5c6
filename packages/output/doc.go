// Package output renders run results and single responses.
//
// The console formatter colors its output when writing to a terminal; the
// JSON formatter emits one machine-readable document per run.
package output
