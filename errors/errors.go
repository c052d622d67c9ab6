package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates which pipeline stage produced the error
type Phase string

const (
	PhaseConfig   Phase = "config"   // configuration and flags
	PhaseGate     Phase = "gate"     // toolchain version check
	PhaseBuild    Phase = "build"    // compiler invocation
	PhaseResolve  Phase = "resolve"  // WIT resolution and world selection
	PhaseEmbed    Phase = "embed"    // metadata embedding
	PhaseEncode   Phase = "encode"   // component encoding
	PhaseTest     Phase = "test"     // test binary builds
	PhaseBindings Phase = "bindings" // binding generation
)

// Kind categorizes the error
type Kind string

const (
	KindArgument   Kind = "argument"   // missing or invalid input
	KindProcess    Kind = "process"    // external command failed
	KindParse      Kind = "parse"      // malformed WIT or wasm
	KindResolution Kind = "resolution" // ambiguous or absent world, conflicting packages
	KindValidation Kind = "validation" // encoder rejected module or adapter
	KindVersion    Kind = "version"    // toolchain version unsupported or unparsable
	KindIO         Kind = "io"         // read/write failure
)

// Error is the structured error type used throughout componentize-go
type Error struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	Path    string
	Command string
	Stderr  string
	Detail  string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Path != "" {
		b.WriteString(" (path ")
		b.WriteString(e.Path)
		b.WriteByte(')')
	}

	if e.Command != "" {
		b.WriteString(" (command `")
		b.WriteString(e.Command)
		b.WriteString("`)")
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		b.WriteString("\n")
		b.WriteString(stderr)
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the kind of the outermost *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// OfKind returns a sentinel usable with errors.Is that matches any phase.
func OfKind(kind Kind) error {
	return &Error{Kind: kind}
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the file path the error relates to
func (b *Builder) Path(path string) *Builder {
	b.err.Path = path
	return b
}

// Command sets the command line that produced the error
func (b *Builder) Command(cmd string) *Builder {
	b.err.Command = cmd
	return b
}

// Stderr sets the captured standard error of a failed command
func (b *Builder) Stderr(stderr []byte) *Builder {
	b.err.Stderr = string(stderr)
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Argument creates a missing or invalid input error
func Argument(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindArgument).Detail(detail, args...).Build()
}

// IO creates a read/write failure error for path
func IO(phase Phase, path string, cause error) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindIO,
		Path:  path,
		Cause: cause,
	}
}

// Parse creates a malformed input error for path
func Parse(phase Phase, path string, cause error) *Error {
	return &Error{
		Phase: phase,
		Kind:  KindParse,
		Path:  path,
		Cause: cause,
	}
}

// Resolution creates a world selection or merge error
func Resolution(detail string, args ...any) *Error {
	return New(PhaseResolve, KindResolution).Detail(detail, args...).Build()
}

// Validation creates an encoder rejection error
func Validation(detail string, args ...any) *Error {
	return New(PhaseEncode, KindValidation).Detail(detail, args...).Build()
}

// WithPath returns err with Path set when err is an *Error without one.
// Other errors are wrapped as phase/kind with the path attached.
func WithPath(phase Phase, kind Kind, path string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		if e.Path == "" {
			e.Path = path
		}
		return err
	}
	return &Error{Phase: phase, Kind: kind, Path: path, Cause: err}
}
