// Package impgerr defines the error taxonomy shared by the build, query
// and snapshot paths: a small Kind enum plus a wrapping Error type, in the
// spirit of the Kind-tagged errors used elsewhere in the grailbio stack,
// layered on github.com/pkg/errors for Wrap/Cause so a failure's root
// cause survives being re-tagged as it crosses a component boundary.
package impgerr

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// Other is an unclassified error; avoid using directly.
	Other Kind = iota
	// InputFormat marks a malformed alignment record.
	InputFormat
	// MissingCigar marks a record lacking a CIGAR tag.
	MissingCigar
	// LengthMismatch marks conflicting lengths observed for one sequence name.
	LengthMismatch
	// CigarInconsistent marks a CIGAR whose consumed span disagrees with
	// the record's declared target/query span.
	CigarInconsistent
	// UnknownSequence marks a query against a name absent from the index.
	UnknownSequence
	// RangeOutOfBounds marks a query range extending past a sequence's length.
	RangeOutOfBounds
	// RangeInverted marks a query range with start >= end.
	RangeInverted
	// SnapshotCorrupt marks a snapshot that failed to deserialize.
	SnapshotCorrupt
	// IoError marks a filesystem or stream failure.
	IoError
)

func (k Kind) String() string {
	switch k {
	case InputFormat:
		return "InputFormat"
	case MissingCigar:
		return "MissingCigar"
	case LengthMismatch:
		return "LengthMismatch"
	case CigarInconsistent:
		return "CigarInconsistent"
	case UnknownSequence:
		return "UnknownSequence"
	case RangeOutOfBounds:
		return "RangeOutOfBounds"
	case RangeInverted:
		return "RangeInverted"
	case SnapshotCorrupt:
		return "SnapshotCorrupt"
	case IoError:
		return "IoError"
	default:
		return "Other"
	}
}

// Error is a Kind-tagged, operation-tagged error. Op names the component
// operation that failed (e.g. "Impg.Build", "SequenceIndex.Intern") so a
// caller scanning logs can tell where in the pipeline things went wrong
// without parsing the message text.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("impg: %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("impg: %s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap lets errors.Is/errors.As see through to Err.
func (e *Error) Unwrap() error { return e.Err }

// E constructs an *Error, wrapping err (if non-nil) with errors.Wrap so
// its stack trace and Cause chain are preserved.
func E(kind Kind, op string, err error) *Error {
	if err != nil {
		err = pkgerrors.Wrap(err, op)
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Ef is like E but builds the wrapped error from a format string.
func Ef(kind Kind, op, format string, args ...interface{}) *Error {
	return E(kind, op, fmt.Errorf(format, args...))
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, else Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}
