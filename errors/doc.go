// Package errors provides structured error types for the tail-call stress harness.
//
// Errors are categorized by Phase (which stage of a trial failed) and Kind (error category).
// The Error type carries the routine or module path, an optional offending value and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseConfig, errors.KindNotFound).
//		Path(path).
//		Cause(err).
//		Detail("read config").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Backend(errors.PhaseCompile, "tailcaller_12", cause)
//	err := errors.UnsupportedPlatform("plan9", "386")
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
