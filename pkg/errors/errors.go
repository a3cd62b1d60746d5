// Package errors defines common error types for the application.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown            = "UNKNOWN_ERROR"
	CodeInvariantViolation = "INVARIANT_VIOLATION"
	CodeConfigError        = "CONFIG_ERROR"
	CodeIOError            = "IO_ERROR"
	CodeProtocolError      = "PROTOCOL_ERROR"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeUploadError        = "UPLOAD_ERROR"
	CodeDownloadError      = "DOWNLOAD_ERROR"
	CodeNotFound           = "NOT_FOUND"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	// ErrInvariantViolation covers out-of-range vertex ids, duplicate
	// label ownership, node reclassification conflicts, self-edge
	// contraction, and a non-root passed to contractEdge.
	ErrInvariantViolation = New(CodeInvariantViolation, "invariant violation")
	// ErrConfigError covers V<P, P not a power of two, and empty or
	// negative partition ranges.
	ErrConfigError = New(CodeConfigError, "configuration error")
	// ErrIOError covers a missing or corrupt store and a self-check
	// failure on a stored adjacency row.
	ErrIOError = New(CodeIOError, "io error")
	// ErrProtocolError covers mismatched sizes between reduction
	// partners and a malformed wire stream.
	ErrProtocolError = New(CodeProtocolError, "protocol error")
	ErrDatabaseError = New(CodeDatabaseError, "database error")
	ErrUploadError   = New(CodeUploadError, "upload error")
	ErrDownloadError = New(CodeDownloadError, "download error")
	ErrNotFound      = New(CodeNotFound, "resource not found")
)

// IsInvariantViolation checks if the error is an invariant violation.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

// IsConfigError checks if the error is a configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfigError)
}

// IsIOError checks if the error is an io error.
func IsIOError(err error) bool {
	return errors.Is(err, ErrIOError)
}

// IsProtocolError checks if the error is a protocol error.
func IsProtocolError(err error) bool {
	return errors.Is(err, ErrProtocolError)
}

// IsDatabaseError checks if the error is a database error.
func IsDatabaseError(err error) bool {
	return errors.Is(err, ErrDatabaseError)
}

// IsUploadError checks if the error is an upload error.
func IsUploadError(err error) bool {
	return errors.Is(err, ErrUploadError)
}

// IsDownloadError checks if the error is a download error.
func IsDownloadError(err error) bool {
	return errors.Is(err, ErrDownloadError)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// ErrorInfo provides a code lookup by short error name.
var ErrorInfo = map[string]string{
	"InvariantViolation": CodeInvariantViolation,
	"ConfigError":        CodeConfigError,
	"IOError":            CodeIOError,
	"ProtocolError":      CodeProtocolError,
	"DatabaseError":      CodeDatabaseError,
	"UploadError":        CodeUploadError,
	"DownloadError":      CodeDownloadError,
}
