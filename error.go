package webrag

import (
	"errors"
	"fmt"
)

// Application error codes.
const (
	ECONFLICT = "conflict"
	EINTERNAL = "internal"
	EINVALID  = "invalid"
	ENOTFOUND = "not_found"

	ECRAWL      = "crawl"
	EEMBEDDING  = "embedding"
	EINDEX      = "index"
	EGENERATION = "generation"
	ESTATE      = "state"
)

// Failure reasons refining an error code.
const (
	ReasonTimeout           = "timeout"
	ReasonRateLimited       = "rate_limited"
	ReasonRefused           = "refused"
	ReasonUnavailable       = "unavailable"
	ReasonUnreachable       = "unreachable"
	ReasonDisallowed        = "disallowed"
	ReasonNoContent         = "no_content"
	ReasonDimensionMismatch = "dimension_mismatch"
)

// Error represents an application-specific error. Code classifies the
// failing capability and Reason, when set, narrows it down.
type Error struct {
	Code    string
	Reason  string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var s string
	if e.Reason != "" {
		s = fmt.Sprintf("webrag error: code=%s reason=%s message=%s", e.Code, e.Reason, e.Message)
	} else {
		s = fmt.Sprintf("webrag error: code=%s message=%s", e.Code, e.Message)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError returns an Error carrying code, reason and cause.
func WrapError(code, reason string, err error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorReason unwraps an application error and returns its reason.
func ErrorReason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error."
}

// IsTransient reports whether err is worth a single retry.
func IsTransient(err error) bool {
	switch ErrorReason(err) {
	case ReasonTimeout, ReasonRateLimited:
		return true
	}
	return false
}
