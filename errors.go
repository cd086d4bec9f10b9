package noproto

import (
	"errors"

	"github.com/kaptinlin/jsonpointer"
)

// Sentinel errors for the taxonomy described in spec.md §7. Callers compare
// against these with errors.Is; *CompileError wraps one of them with the
// location and message that produced it.
var (
	ErrParseError         = errors.New("parse error")
	ErrOutOfBounds        = errors.New("out of bounds")
	ErrRecursionLimit     = errors.New("recursion limit exceeded")
	ErrUnknownType        = errors.New("unknown type")
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrArityMismatch      = errors.New("generic arity mismatch")
	ErrBracketMismatch    = errors.New("bracket mismatch")
	ErrMissingID          = errors.New("top-level type is missing an id")
	ErrMissingName        = errors.New("top-level type is missing a name")
	ErrInvalidDefault     = errors.New("invalid default value")
	ErrPortalUnresolved   = errors.New("portal path did not resolve")
	ErrUnterminatedString = errors.New("unterminated string literal")
	ErrUnterminatedGroup  = errors.New("unterminated bracket group")
)

// CompileError is the concrete error value returned by schema compilation
// and buffer-type parsing. Kind is always one of the sentinels above so
// callers can switch on it with errors.Is; Path, when non-empty, is a
// jsonpointer-formatted location within the schema or type expression.
type CompileError struct {
	Kind error
	Path string
	Msg  string
	Err  error
}

func (e *CompileError) Error() string {
	if e.Path != "" {
		return e.Kind.Error() + " at " + e.Path + ": " + e.Msg
	}
	return e.Kind.Error() + ": " + e.Msg
}

func (e *CompileError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

func newErr(kind error, msg string) *CompileError {
	return &CompileError{Kind: kind, Msg: msg}
}

// newErrAt builds a CompileError whose Path is a proper JSON Pointer
// fragment, escaped with github.com/kaptinlin/jsonpointer.Format the same
// way kaptinlin-jsonschema/schema.go formats its own keyword-location
// errors — a raw identifier (a type or method name) can legally contain
// '/' or '~', which Format escapes as "~1"/"~0" rather than producing an
// ambiguous pointer.
func newErrAt(kind error, segment, msg string) *CompileError {
	return &CompileError{Kind: kind, Path: jsonpointer.Format(segment), Msg: msg}
}
