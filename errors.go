package staticgen

import (
	"errors"
	"fmt"
)

// Application error codes. These map machine-readable failure kinds onto
// errors so that callers can decide whether a failure is fatal, retryable,
// or merely recordable without string matching.
const (
	// Generic codes.
	ECONFLICT    = "conflict"
	EINTERNAL    = "internal"
	EINVALID     = "invalid"
	ENOTFOUND    = "not_found"
	EUNAVAILABLE = "unavailable"

	// Generation codes.
	ECONFIG    = "config"          // invalid configuration, aborts the run
	EROUTE     = "route"           // malformed route descriptor, aborts the run
	EARGS      = "argument_gen"    // broken argument generator, skips the route
	ERENDER    = "render"          // failed render, skips the page
	ECOLLISION = "path_collision"  // two targets mapped to one output path
	EWRITE     = "write"           // failed local write, skips the page

	// Publish codes.
	EPUBLISHTRANSIENT = "publish_transient" // retried with backoff
	EPUBLISHPERMANENT = "publish_permanent" // recorded immediately, never retried
)

// Error represents an application-specific error. Application errors can be
// unwrapped by the caller to extract the code and message.
type Error struct {
	// Machine-readable error code.
	Code string

	// Human-readable message.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("staticgen error: code=%s message=%s", e.Code, e.Message)
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

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "Internal error".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Message
	}
	return "Internal error"
}

// Errorf is a helper function to return an Error with a given code and
// formatted message.
func Errorf(code string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
