package extract

import (
	"errors"
	"fmt"
)

// Kind classifies an extraction failure.
type Kind int

const (
	KindUnsupportedFormat Kind = iota + 1
	KindDecodeFailure
	KindEmptyOrTooShort
	KindCapabilityLoadFailure
)

func (k Kind) String() string {
	switch k {
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindDecodeFailure:
		return "decode_failure"
	case KindEmptyOrTooShort:
		return "empty_or_too_short"
	case KindCapabilityLoadFailure:
		return "capability_load_failure"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrUnsupportedFormat     = errors.New("unsupported format")
	ErrDecodeFailure         = errors.New("decode failure")
	ErrEmptyOrTooShort       = errors.New("extracted text empty or too short")
	ErrCapabilityLoadFailure = errors.New("decoding capability unavailable")
)

// Error is the typed failure returned by Extract.
type Error struct {
	Kind     Kind
	Format   Format
	Filename string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("extract %s (%s): %s", e.Filename, e.Format, e.sentinel())
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	return target == e.sentinel()
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindUnsupportedFormat:
		return ErrUnsupportedFormat
	case KindDecodeFailure:
		return ErrDecodeFailure
	case KindEmptyOrTooShort:
		return ErrEmptyOrTooShort
	case KindCapabilityLoadFailure:
		return ErrCapabilityLoadFailure
	}
	return nil
}

// KindOf returns the Kind of err, or 0 if err is not an extraction error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// decodeError marks err as a decode failure. Extract fills in format and filename.
func decodeError(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindDecodeFailure, Err: err}
}
