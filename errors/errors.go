package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which stage of a trial produced the error
type Phase string

const (
	PhaseConfig      Phase = "config"      // configuration and platform selection
	PhaseGenerate    Phase = "generate"    // signature and argument generation
	PhaseDecode      Phase = "decode"      // wasm binary decoding
	PhaseCompile     Phase = "compile"     // engine compilation
	PhaseInstantiate Phase = "instantiate" // module instantiation
	PhaseExecute     Phase = "execute"     // routine invocation
	PhaseRecord      Phase = "record"      // mismatch corpus persistence
)

// Kind categorizes the error
type Kind string

const (
	KindOutOfBounds   Kind = "out_of_bounds"
	KindInvalidData   Kind = "invalid_data"
	KindUnsupported   Kind = "unsupported"
	KindNotFound      Kind = "not_found"
	KindInvalidInput  Kind = "invalid_input"
	KindBackend       Kind = "backend"
	KindInstantiation Kind = "instantiation"
	KindStorage       Kind = "storage"
)

// Error is the structured error type used throughout the harness
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
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

// Path sets the routine/argument path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
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

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Backend wraps a failure reported by the code generation backend
func Backend(phase Phase, routine string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBackend,
		Path:   []string{routine},
		Detail: string(phase) + " " + routine,
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(module string, cause error) *Error {
	return &Error{
		Phase:  PhaseInstantiate,
		Kind:   KindInstantiation,
		Path:   []string{module},
		Detail: "instantiate module",
		Cause:  cause,
	}
}

// Storage creates a corpus persistence error
func Storage(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseRecord,
		Kind:   KindStorage,
		Detail: detail,
		Cause:  cause,
	}
}

// UnsupportedPlatform creates the error returned when no calling convention
// models the host platform.
func UnsupportedPlatform(goos, goarch string) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindUnsupported,
		Path:   []string{goos, goarch},
		Detail: fmt.Sprintf("no calling convention modeled for %s/%s", goos, goarch),
	}
}
