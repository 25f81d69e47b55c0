package booking

import (
	"errors"
	"fmt"

	"github.com/arjunpatel/facilitybook/internal/bookingerr"
	"github.com/arjunpatel/facilitybook/internal/constants"
)

// Error represents a structured booking-service error with enough
// context to log and to compare against a specific ErrorCode.
type Error struct {
	Op    string    // operation that failed, e.g. "BOOK", "CHANGE"
	Code  ErrorCode // high-level error category
	Msg   string    // human-readable message
	Inner error     // wrapped error, if any
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("booking: %s: %s (%s)", e.Op, e.Msg, e.Code)
	}
	return fmt.Sprintf("booking: %s (%s)", e.Msg, e.Code)
}

func (e *Error) Unwrap() error { return e.Inner }

// Is supports errors.Is comparison against both a *Error with the same
// Code and the legacy BookingError string constants.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if be, ok := target.(BookingError); ok {
		return e.Code == ErrorCode(be)
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// ErrorCode categorizes a failure independent of its message.
type ErrorCode string

const (
	ErrCodeNotFound ErrorCode = "not found"
	ErrCodeConflict ErrorCode = "conflict"
	ErrCodeInvalid  ErrorCode = "invalid argument"
	ErrCodeInternal ErrorCode = "internal error"
	ErrCodeTimeout  ErrorCode = "timeout"
)

// BookingError is a legacy string-based error type kept for callers that
// compare against error values directly rather than via ErrorCode.
type BookingError string

func (e BookingError) Error() string { return string(e) }

const (
	ErrNotFound BookingError = BookingError(ErrCodeNotFound)
	ErrConflict BookingError = BookingError(ErrCodeConflict)
	ErrInvalid  BookingError = BookingError(ErrCodeInvalid)
	ErrInternal BookingError = BookingError(ErrCodeInternal)
	ErrTimeout  BookingError = BookingError(ErrCodeTimeout)
)

// NewError creates a new structured error.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// WrapError wraps an existing error under op, preserving its code if it's
// already a *Error (e.g. re-raised by a higher layer) and otherwise
// classifying it as internal.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if be, ok := inner.(*Error); ok {
		return &Error{Op: op, Code: be.Code, Msg: be.Msg, Inner: be.Inner}
	}
	return &Error{Op: op, Code: ErrCodeInternal, Msg: inner.Error(), Inner: inner}
}

// errorFromResponseCode builds a client-facing *Error from a wire
// response_code and its UTF-8 explanation payload.
func errorFromResponseCode(op string, code uint8, msg string) *Error {
	switch code {
	case constants.RespErrNotFound:
		return NewError(op, ErrCodeNotFound, msg)
	case constants.RespErrConflict:
		return NewError(op, ErrCodeConflict, msg)
	case constants.RespErrInvalid:
		return NewError(op, ErrCodeInvalid, msg)
	default:
		return NewError(op, ErrCodeInternal, msg)
	}
}

// errorFromBookingErr mirrors the engine's internal taxonomy onto the
// public ErrorCode space, used by components that call into internal/engine
// directly (e.g. embedders linking the engine in-process).
func errorFromBookingErr(err error) *Error {
	be, ok := err.(*bookingerr.Error)
	if !ok {
		return WrapError("", err)
	}
	switch be.Code {
	case bookingerr.NotFound:
		return NewError(be.Op, ErrCodeNotFound, be.Msg)
	case bookingerr.Conflict:
		return NewError(be.Op, ErrCodeConflict, be.Msg)
	case bookingerr.Invalid:
		return NewError(be.Op, ErrCodeInvalid, be.Msg)
	default:
		return NewError(be.Op, ErrCodeInternal, be.Msg)
	}
}

// IsCode reports whether err is a *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var bErr *Error
	if errors.As(err, &bErr) {
		return bErr.Code == code
	}
	return false
}
