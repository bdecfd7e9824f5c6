// Package parser reads hitreq request files.
//
// A request file is YAML with an optional base URL, shared variables and
// headers, and an ordered list of requests. Each request may capture values
// from its response for later requests and declare expectations such as
//
//	expect:
//	  status: 200
//	  assert:
//	    - body.id exists
//	    - header Content-Type contains json
package parser
