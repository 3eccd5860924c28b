// Package config loads the relay configuration from an optional .env file,
// YAML files and environment variables. Defaults reproduce the fixed local
// development setup: listen on localhost:8000 and forward conversions to the
// Functions host on localhost:7071 with a 30 second timeout.
package config
