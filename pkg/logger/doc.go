// Package logger builds the relay's structured slog logger: text output while
// developing, JSON records in production, and an environment attribute on
// every record.
package logger
