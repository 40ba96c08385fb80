// Package config handles configuration loading, parsing, and validation
// from defaults, an optional config.yaml, an optional .env file and
// SCRY_-prefixed environment variables. It provides type-safe access to
// application settings while keeping configuration details separate from
// business logic.
package config
