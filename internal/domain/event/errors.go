package event

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrUnsupportedEvent  = errors.New("unsupported event")
	ErrParse             = errors.New("parse error")
	ErrSealed            = errors.New("event set is sealed")
)

// UnsupportedError explains why a raw event could not be turned into a Record.
// Field names the offending input field when one is known.
type UnsupportedError struct {
	Field  string
	Reason string
	Err    error
}

// Unsupported returns an *UnsupportedError for field with a reason.
func Unsupported(field, reason string) error {
	return &UnsupportedError{Field: field, Reason: reason}
}

// UnsupportedCause wraps err as an *UnsupportedError for field.
func UnsupportedCause(field string, err error) error {
	return &UnsupportedError{Field: field, Err: err}
}

func (e *UnsupportedError) Error() string {
	msg := ErrUnsupportedEvent.Error()
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches ErrUnsupportedEvent.
func (e *UnsupportedError) Is(target error) bool { return target == ErrUnsupportedEvent }

func (e *UnsupportedError) Unwrap() error { return e.Err }

// ParseError reports a malformed payload structure.
type ParseError struct {
	// Offset is the byte offset reached by the decoder, or -1 when unknown.
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset %d: %v", ErrParse, e.Offset, e.Err)
	}
	return fmt.Sprintf("%s: %v", ErrParse, e.Err)
}

// Is matches ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

// FieldOf returns the offending field recorded in err, if any.
func FieldOf(err error) string {
	var ue *UnsupportedError
	if errors.As(err, &ue) {
		return ue.Field
	}
	return ""
}
