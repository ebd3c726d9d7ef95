package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseScaffold Phase = "scaffold" // project generation
	PhaseManifest Phase = "manifest" // forge.json handling
	PhaseBuild    Phase = "build"    // external compiler invocation
	PhaseLoad     Phase = "load"     // extension loading
	PhaseCall     Phase = "call"     // extension function calls
	PhaseInspect  Phase = "inspect"  // artifact inspection
	PhaseWatch    Phase = "watch"    // file watching
	PhaseDeploy   Phase = "deploy"   // artifact deployment
	PhaseRegistry Phase = "registry" // deployment index
	PhaseHost     Phase = "host"     // host bundle registration
	PhaseConfig   Phase = "config"   // environment configuration
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindInvalidInput Kind = "invalid_input"
	KindInvalidData  Kind = "invalid_data"
	KindIO           Kind = "io"
	KindExec         Kind = "exec"
	KindConflict     Kind = "conflict"
	KindUnsupported  Kind = "unsupported"
	KindRegistration Kind = "registration"
	KindInternal     Kind = "internal"
)

// Error is the structured error type used throughout the toolkit
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

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
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

// NotFound creates a not-found error for a named thing
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
		Value:  name,
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

// InvalidData creates an invalid data error at a field path
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// IO creates an I/O error wrapping the underlying cause
func IO(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIO,
		Detail: detail,
		Cause:  cause,
	}
}

// Conflict creates a conflict error (target already exists)
func Conflict(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindConflict,
		Detail: detail,
	}
}

// Registration creates a host registration error
func Registration(namespace, name string, cause error) *Error {
	return &Error{
		Phase:  PhaseHost,
		Kind:   KindRegistration,
		Path:   []string{namespace, name},
		Detail: "register host function",
		Cause:  cause,
	}
}

// Load creates a load-phase error wrapping a cause
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInternal,
		Detail: detail,
		Cause:  cause,
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

// ToolError is returned when an external build tool exits unsuccessfully.
// It preserves the command line and captured stderr for diagnosis; the
// toolkit never retries or reinterprets tool failures.
type ToolError struct {
	Err    error
	Tool   string
	Stderr string
	Args   []string
}

func (e *ToolError) Error() string {
	var b strings.Builder
	b.WriteString(e.Tool)
	for _, a := range e.Args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	b.WriteString(": ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString("failed")
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		b.WriteByte('\n')
		b.WriteString(s)
	}
	return b.String()
}

// Unwrap returns the process error
func (e *ToolError) Unwrap() error {
	return e.Err
}
