package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the class of failure that stopped a run
type ErrorType string

const (
	ErrorTypeInvalidURL ErrorType = "invalid_url"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeAPI        ErrorType = "api"
	ErrorTypeFetch      ErrorType = "fetch"
	ErrorTypeFilesystem ErrorType = "filesystem"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error represents a classified error with optional HTTP status code
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error of the given type
func New(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given type around a cause
func Wrap(t ErrorType, err error, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...), Err: err}
}

// InvalidURL reports unsupported or malformed input
func InvalidURL(format string, args ...interface{}) *Error {
	return New(ErrorTypeInvalidURL, format, args...)
}

// Auth reports a failed session handshake or token extraction
func Auth(format string, args ...interface{}) *Error {
	return New(ErrorTypeAuth, format, args...)
}

// API reports an unexpected RPC response shape
func API(format string, args ...interface{}) *Error {
	return New(ErrorTypeAPI, format, args...)
}

// Fetch reports a non-success image response
func Fetch(url string, code int) *Error {
	return &Error{
		Type:    ErrorTypeFetch,
		Message: fmt.Sprintf("failed to fetch %s", url),
		Code:    code,
	}
}

// Filesystem reports a destination that cannot be created or written
func Filesystem(err error, format string, args ...interface{}) *Error {
	return Wrap(ErrorTypeFilesystem, err, format, args...)
}

// NotFound reports a requested resource that is absent from a listing
func NotFound(format string, args ...interface{}) *Error {
	return New(ErrorTypeNotFound, format, args...)
}

// TypeOf returns the type of the first classified error in the chain
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries a classified error of type t
func IsType(err error, t ErrorType) bool {
	if err == nil {
		return false
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type == t
	}
	return false
}
