// Package bookingerr is the error taxonomy shared by the engine and the
// dispatcher. It stays free of any response-code or wire
// concern so those packages don't need to import the protocol codec.
package bookingerr

import "fmt"

// Code classifies a failure independent of how it's eventually reported
// on the wire.
type Code int

const (
	NotFound Code = iota
	Conflict
	Invalid
	Internal
)

func (c Code) String() string {
	switch c {
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Invalid:
		return "invalid"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the error type returned by the engine and built by the
// dispatcher for its own failures.
type Error struct {
	Op   string
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Msg)
}

func NotFoundf(op, format string, a ...any) *Error {
	return &Error{Op: op, Code: NotFound, Msg: fmt.Sprintf(format, a...)}
}

func Conflictf(op, format string, a ...any) *Error {
	return &Error{Op: op, Code: Conflict, Msg: fmt.Sprintf(format, a...)}
}

func Invalidf(op, format string, a ...any) *Error {
	return &Error{Op: op, Code: Invalid, Msg: fmt.Sprintf(format, a...)}
}

func Internalf(op, format string, a ...any) *Error {
	return &Error{Op: op, Code: Internal, Msg: fmt.Sprintf(format, a...)}
}

// Is reports whether err is a *Error with the given code, so callers can
// write bookingerr.Is(err, bookingerr.Conflict) instead of type-asserting.
func Is(err error, code Code) bool {
	e, ok := err.(*Error)
	return ok && e.Code == code
}
