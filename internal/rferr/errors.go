// Package rferr defines the error taxonomy shared by the dispatcher, the chunk codec
// and the streaming handlers. Every domain error carries a stable Code and a free-text
// detail; transports map the code to their own status space.
package rferr

import (
	"errors"
	"fmt"
)

// Code is a stable identifier for a class of domain error.
type Code int

const (
	// DeviceNotFound means the requested device id is not registered
	DeviceNotFound Code = iota + 1
	// InvalidFieldValue means a frequency or gain value was rejected
	InvalidFieldValue
	// UnknownMethod means the method name is not part of the RPC surface
	UnknownMethod
	// TruncatedStream means the transport ended before a terminal chunk arrived
	TruncatedStream
	// MalformedChunk means a chunk broke ordering or shape rules
	MalformedChunk
	// Unsupported means the device lacks an optional capability
	Unsupported
)

// String returns the string representation of Code
func (c Code) String() string {
	switch c {
	case DeviceNotFound:
		return "device_not_found"
	case InvalidFieldValue:
		return "invalid_field_value"
	case UnknownMethod:
		return "unknown_method"
	case TruncatedStream:
		return "truncated_stream"
	case MalformedChunk:
		return "malformed_chunk"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error is a domain error with a stable code.
type Error struct {
	Code   Code
	Detail string
	// Hint is an optional remediation string shown to clients.
	Hint string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Code.String() + ": " + e.Detail
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code. A target with a
// non-empty Detail must also match the detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Code != e.Code {
		return false
	}
	return t.Detail == "" || t.Detail == e.Detail
}

// Sentinels usable with errors.Is to test only the code.
var (
	ErrDeviceNotFound    = &Error{Code: DeviceNotFound}
	ErrInvalidFieldValue = &Error{Code: InvalidFieldValue}
	ErrUnknownMethod     = &Error{Code: UnknownMethod}
	ErrTruncatedStream   = &Error{Code: TruncatedStream}
	ErrMalformedChunk    = &Error{Code: MalformedChunk}
	ErrUnsupported       = &Error{Code: Unsupported}
)

// New creates an Error with a formatted detail.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that wraps cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...), Err: cause}
}

// NotFound builds the DeviceNotFound error for id, pointing clients at fallback.
func NotFound(id, fallback string) *Error {
	return &Error{
		Code:   DeviceNotFound,
		Detail: fmt.Sprintf("device %q is not connected", id),
		Hint:   fmt.Sprintf("no hardware connected, please use %q as device_id", fallback),
	}
}

// CodeOf returns the code carried by err, or 0 if err is not a domain error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// As returns the domain error carried by err.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
