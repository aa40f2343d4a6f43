package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the different kinds of failure a reading session can hit
type ErrorType string

const (
	ErrorTypeMissingFile       ErrorType = "missing_file"
	ErrorTypeCorruptStore      ErrorType = "corrupt_store"
	ErrorTypeMalformedTemplate ErrorType = "malformed_template"
	ErrorTypeSessionClosed     ErrorType = "session_closed"
	ErrorTypeUnknown           ErrorType = "unknown"
)

// Sentinels for errors.Is checks. A typed *Error matches the sentinel of its type.
var (
	ErrMissingFile       = errors.New("missing file")
	ErrCorruptStore      = errors.New("corrupt checkpoint store")
	ErrMalformedTemplate = errors.New("malformed template")
	ErrSessionClosed     = errors.New("session closed")
)

// Error is a failure with type information and the path it concerns
type Error struct {
	Type    ErrorType
	Message string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Type, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's type
func (e *Error) Is(target error) bool {
	return sentinelFor(e.Type) == target
}

// MissingFile reports that the file for a date in range could not be opened
func MissingFile(path string, err error) *Error {
	return &Error{
		Type:    ErrorTypeMissingFile,
		Message: "dated file does not exist",
		Path:    path,
		Err:     err,
	}
}

// CorruptStore reports persisted checkpoint data that cannot be decoded
func CorruptStore(path string, err error) *Error {
	return &Error{
		Type:    ErrorTypeCorruptStore,
		Message: "checkpoint data cannot be decoded",
		Path:    path,
		Err:     err,
	}
}

// MalformedTemplate reports a file-name template without a date placeholder
func MalformedTemplate(template string) *Error {
	return &Error{
		Type:    ErrorTypeMalformedTemplate,
		Message: fmt.Sprintf("template %q has no {date} placeholder", template),
	}
}

// SessionClosed reports a read attempted after the session was closed
func SessionClosed() *Error {
	return &Error{
		Type:    ErrorTypeSessionClosed,
		Message: "checkpoint table is no longer loaded",
	}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

func sentinelFor(t ErrorType) error {
	switch t {
	case ErrorTypeMissingFile:
		return ErrMissingFile
	case ErrorTypeCorruptStore:
		return ErrCorruptStore
	case ErrorTypeMalformedTemplate:
		return ErrMalformedTemplate
	case ErrorTypeSessionClosed:
		return ErrSessionClosed
	default:
		return nil
	}
}
