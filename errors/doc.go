// Package errors provides structured error types for componentize-go.
//
// Errors are categorized by Phase (which pipeline stage failed) and Kind
// (argument, process, parse, resolution, validation, version, io). Every
// error carries the path or command that produced it, and failed external
// commands carry their captured stderr.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseGate, errors.KindProcess).
//		Command("go version").
//		Stderr(stderr).
//		Detail("exit status %d", code).
//		Build()
//
// Errors support errors.Is against a phase/kind template, and OfKind builds
// a template that matches a kind in any phase:
//
//	if errors.Is(err, errors.OfKind(errors.KindResolution)) { ... }
package errors
