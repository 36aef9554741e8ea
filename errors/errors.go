package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseHeader Phase = "header" // version, length and byte order
	PhaseGroup  Phase = "group"  // tag group framing
	PhaseEntry  Phase = "entry"  // tag entry framing
	PhaseValue  Phase = "value"  // typed value decoding
	PhaseStore  Phase = "store"  // tag store lookups
	PhasePixels Phase = "pixels" // pixel buffer extraction
	PhaseDump   Phase = "dump"   // tag dump output
	PhaseConfig Phase = "config" // configuration loading
	PhaseCLI    Phase = "cli"    // command line handling
)

// Kind categorizes the error
type Kind string

const (
	KindUnsupportedFormat Kind = "unsupported_format"
	KindCorruptTag        Kind = "corrupt_tag"
	KindTruncatedStream   Kind = "truncated_stream"
	KindDepthExceeded     Kind = "depth_exceeded"
	KindNotFound          Kind = "not_found"
	KindInvalidData       Kind = "invalid_data"
	KindUnsupported       Kind = "unsupported"
	KindInvalidInput      Kind = "invalid_input"
	KindIO                Kind = "io"
)

// Sentinels for errors.Is. They carry no Phase, so they match an error of
// the same Kind raised from any phase.
var (
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat}
	ErrCorruptTag        = &Error{Kind: KindCorruptTag}
	ErrTruncatedStream   = &Error{Kind: KindTruncatedStream}
	ErrDepthExceeded     = &Error{Kind: KindDepthExceeded}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

// NoOffset marks an error that is not tied to a stream position.
const NoOffset int64 = -1

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
	Offset int64
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

	if e.Offset >= 0 {
		fmt.Fprintf(&b, " (offset 0x%x)", e.Offset)
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

// Is reports whether target matches this error. A target without a Phase
// matches on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: NoOffset,
		},
	}
}

// Path sets the tag path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Offset sets the stream position the error refers to
func (b *Builder) Offset(off int64) *Builder {
	b.err.Offset = off
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

// UnsupportedFormat reports input that is not a DM3/DM4 stream.
func UnsupportedFormat(offset int64, detail string, args ...any) *Error {
	return New(PhaseHeader, KindUnsupportedFormat).
		Offset(offset).
		Detail(detail, args...).
		Build()
}

// CorruptTag reports a malformed tag structure.
func CorruptTag(phase Phase, offset int64, path string, detail string, args ...any) *Error {
	b := New(phase, KindCorruptTag).Offset(offset).Detail(detail, args...)
	if path != "" {
		b.Path(path)
	}
	return b.Build()
}

// TruncatedStream reports a read, skip or seek past the end of the stream.
func TruncatedStream(offset, want, have int64) *Error {
	return &Error{
		Phase:  PhaseValue,
		Kind:   KindTruncatedStream,
		Offset: offset,
		Detail: fmt.Sprintf("need %d bytes, %d available", want, have),
		Value:  want,
	}
}

// DepthExceeded reports tag group nesting beyond the supported maximum.
func DepthExceeded(offset int64, path string, max int) *Error {
	return &Error{
		Phase:  PhaseGroup,
		Kind:   KindDepthExceeded,
		Path:   []string{path},
		Offset: offset,
		Detail: fmt.Sprintf("group nesting exceeds %d levels", max),
		Value:  max,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Offset: NoOffset,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Offset: NoOffset,
		Detail: detail,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Offset: NoOffset,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Offset: NoOffset,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Offset: NoOffset,
		Detail: detail,
		Cause:  cause,
	}
}

// WithPhase returns a copy of e attributed to phase. Used when a lower
// layer raised the error without knowing which parse phase it served.
func (e *Error) WithPhase(phase Phase) *Error {
	c := *e
	c.Phase = phase
	return &c
}

// WithPath returns a copy of e carrying the tag path.
func (e *Error) WithPath(path string) *Error {
	c := *e
	if path != "" {
		c.Path = []string{path}
	}
	return &c
}
