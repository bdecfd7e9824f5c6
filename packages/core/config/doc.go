// Package config handles configuration loading and management for hitreq.
//
// It provides functionality for:
//   - Loading configuration from .hitreq.yaml, .hitreq.yml or .hitreq.json
//   - Default configuration values
//   - Applying configured defaults to requests and clients
package config
