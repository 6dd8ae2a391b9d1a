// Package rferr defines the small set of error kinds surfaced by the
// learning engine, so callers can test an error's category with Is rather
// than parsing message text.
package rferr

import "errors"

// Kind categorizes an error raised by the tree/forest packages.
type Kind int

const (
	// InvalidArgument marks null/empty inputs, mismatched image/label
	// dimensions, or a forest used before training.
	InvalidArgument Kind = iota
	// InvalidData marks unsupported bit depth, wrong magic number, or an
	// image/label count mismatch while loading a dataset.
	InvalidData
	// IoFailure marks a short read/write during persistence.
	IoFailure
	// AllocationFailure marks a failure to allocate a child node or
	// sample vector during training.
	AllocationFailure
	// StructuralError marks a node with exactly one child encountered
	// during classification.
	StructuralError
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case InvalidData:
		return "invalid data"
	case IoFailure:
		return "io failure"
	case AllocationFailure:
		return "allocation failure"
	case StructuralError:
		return "structural error"
	default:
		return "unknown error"
	}
}

// rfError pairs a Kind with a human-readable message, and unwraps to an
// optional underlying cause.
type rfError struct {
	kind  Kind
	msg   string
	cause error
}

func (e *rfError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *rfError) Unwrap() error {
	return e.cause
}

// New returns an error of the given kind with msg as its message.
func New(kind Kind, msg string) error {
	return &rfError{kind: kind, msg: msg}
}

// Wrap returns an error of the given kind wrapping cause.
func Wrap(kind Kind, msg string, cause error) error {
	return &rfError{kind: kind, msg: msg, cause: cause}
}

// Is reports whether err (or something it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	var e *rfError
	if errors.As(err, &e) {
		return e.kind == kind
	}
	return false
}
