// Package errors provides unified error handling with structured error codes.
// Codes map onto HTTP statuses at the API boundary and drive retry decisions.
package errors

import (
	"fmt"
	"net/http"
)

// Code classifies a failure.
type Code int

const (
	CodeUnknown Code = iota
	CodeInternal
	CodeInvalidArgument
	CodeNotFound
	CodeUnauthorized
	CodeConfigMissing
	CodeProviderError
	CodeRateLimited
	CodeTimeout
	CodeParseFailed
	CodeStorageFailed
	CodeTranscriptionFailed
	CodeUnavailable
)

var codeNames = map[Code]string{
	CodeUnknown:             "UNKNOWN",
	CodeInternal:            "INTERNAL",
	CodeInvalidArgument:     "INVALID_ARGUMENT",
	CodeNotFound:            "NOT_FOUND",
	CodeUnauthorized:        "UNAUTHORIZED",
	CodeConfigMissing:       "CONFIG_MISSING",
	CodeProviderError:       "PROVIDER_ERROR",
	CodeRateLimited:         "RATE_LIMITED",
	CodeTimeout:             "TIMEOUT",
	CodeParseFailed:         "PARSE_FAILED",
	CodeStorageFailed:       "STORAGE_FAILED",
	CodeTranscriptionFailed: "TRANSCRIPTION_FAILED",
	CodeUnavailable:         "UNAVAILABLE",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "UNKNOWN"
}

// httpStatusMap maps codes to HTTP statuses for the API boundary.
var httpStatusMap = map[Code]int{
	CodeUnknown:             http.StatusInternalServerError,
	CodeInternal:            http.StatusInternalServerError,
	CodeInvalidArgument:     http.StatusBadRequest,
	CodeNotFound:            http.StatusNotFound,
	CodeUnauthorized:        http.StatusUnauthorized,
	CodeConfigMissing:       http.StatusInternalServerError,
	CodeProviderError:       http.StatusBadGateway,
	CodeRateLimited:         http.StatusTooManyRequests,
	CodeTimeout:             http.StatusGatewayTimeout,
	CodeParseFailed:         http.StatusBadGateway,
	CodeStorageFailed:       http.StatusInternalServerError,
	CodeTranscriptionFailed: http.StatusBadGateway,
	CodeUnavailable:         http.StatusServiceUnavailable,
}

// AppError is the base error type with structured code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// HTTPStatus returns the corresponding HTTP status code.
func (e *AppError) HTTPStatus() int {
	if s, ok := httpStatusMap[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// FromStatus maps a provider HTTP status to an AppError carrying the raw body.
func FromStatus(status int, body string) *AppError {
	code := CodeProviderError
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = CodeUnauthorized
	case status == http.StatusTooManyRequests:
		code = CodeRateLimited
	case status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout:
		code = CodeTimeout
	case status >= 500:
		code = CodeUnavailable
	}
	e := Newf(code, "provider returned status %d", status)
	if body != "" {
		e = e.WithMetadata("body", body)
	}
	return e.WithMetadata("status", fmt.Sprintf("%d", status))
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code Code) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// IsRetryable returns true if the error is potentially retryable.
func IsRetryable(err error) bool {
	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}
	switch appErr.Code {
	case CodeUnavailable, CodeTimeout, CodeRateLimited:
		return true
	default:
		return false
	}
}
