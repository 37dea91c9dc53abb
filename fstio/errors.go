package fstio

import (
	"strings"
)

// Kind categorizes a load or store failure.
type Kind string

const (
	KindBadMagic     Kind = "bad_magic"
	KindTypeMismatch Kind = "type_mismatch"
	KindTruncated    Kind = "truncated"
	KindUnsupported  Kind = "unsupported"
	KindSyntax       Kind = "syntax"
	KindCorrupt      Kind = "corrupt"
)

// Error is the structured error returned by every reader in this package.
type Error struct {
	Op     string // "read", "write", "open", "map"
	Kind   Kind
	Path   string
	Detail string
	Cause  error
}

// Kind sentinels for errors.Is.
var (
	ErrBadMagic     = &Error{Kind: KindBadMagic}
	ErrTypeMismatch = &Error{Kind: KindTypeMismatch}
	ErrTruncated    = &Error{Kind: KindTruncated}
	ErrUnsupported  = &Error{Kind: KindUnsupported}
	ErrSyntax       = &Error{Kind: KindSyntax}
	ErrCorrupt      = &Error{Kind: KindCorrupt}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("fstio: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteByte(' ')
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteByte(' ')
	}
	b.WriteString(string(e.Kind))
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

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func newError(op string, kind Kind, detail string, cause error) *Error {
	return &Error{Op: op, Kind: kind, Detail: detail, Cause: cause}
}

// withPath attaches a file path to err when it is an *Error.
func withPath(err error, path string) error {
	if e, ok := err.(*Error); ok && e.Path == "" {
		e.Path = path
	}
	return err
}
