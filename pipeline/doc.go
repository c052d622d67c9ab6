// Package pipeline orchestrates a componentize-go run.
//
// A run gates the Go toolchain, checks that stages implementing Preparer are
// ready, resolves the WIT world once, then takes each compiled binary
// through three states:
//
//	Parsed -> Embedded -> Encoded
//
// The binary is rewritten in place at every transition with an atomic
// write, so a failure leaves the last completed state on disk. With
// Componentize unset the run stops at Parsed and leaves a plain wasip1
// module. Text format compiler output is assembled through the configured
// Assembler and persisted as binary before the first stage.
//
// Test runs build one binary per package, sequentially. They stop at the
// first failure unless KeepGoing is set, in which case every failure is
// collected into the returned error (see go.uber.org/multierr).
package pipeline
