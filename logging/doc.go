// Package logging provides a minimal logging interface and adapters for eduagents.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the invoker, generation service and pipeline use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ContextLogger carrying component / trace attributes plus agent and model helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	p := pipeline.New(writer, func(o *pipeline.Options) { o.Logger = logger })
//
// The interface stays minimal so callers can plug any structured logger.
package logging
