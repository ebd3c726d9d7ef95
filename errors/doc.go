// Package errors provides structured error types for the forge toolkit.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes context: a field path into manifests or
// project trees, a detail message, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseManifest, errors.KindInvalidData).
//		Path("exports", "tac").
//		Detail("unparseable signature").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseCall, "function", "tac")
//	err := errors.IO(errors.PhaseLoad, "read module", cause)
//
// External build-tool failures are reported as *ToolError, which preserves
// the invoked command and its stderr.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
