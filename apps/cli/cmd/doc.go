// Package cmd implements the hitreq CLI commands using Cobra.
//
// Available commands:
//   - send: Build one request from flags and print the response
//   - run: Execute the requests of YAML request files and check expectations
//   - bench: Repeat one request and report latency percentiles
//   - cookies: List, set or clear the persisted cookie jar
//   - validate: Check request files without sending anything
//   - init: Create a config file and an example request file
//   - version: Show hitreq version information
//
// Every command resolves configuration the same way: defaults, then the
// config file, then flags. Errors map to the exit codes in exitcodes.go.
package cmd
