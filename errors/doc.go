// Package errors provides structured error types for the wasm-ast library.
//
// Errors are categorized by Phase (parse, encode, analysis) and Kind (error
// category). The Error type includes rich context: field path, WIT type name,
// and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseParse, errors.KindUnsupported).
//		Path("code", "body").
//		Detail("GC proposal is not supported").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Unsupported(errors.PhaseParse, "Tail call proposal is not supported")
//	err := errors.OutOfBounds(errors.PhaseAnalysis, path, 10, 5)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
