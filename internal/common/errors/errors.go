// Package errors provides the standardized error type used across the roster
// search packages.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Search-state and input errors
const (
	ErrCodeMalformedPersistedState ErrorCode = "MALFORMED_PERSISTED_STATE"
	ErrCodeUnparseableMagnitude    ErrorCode = "UNPARSEABLE_MAGNITUDE"
	ErrCodeInvalidPage             ErrorCode = "INVALID_PAGE"
	ErrCodeStatePersistFailed      ErrorCode = "STATE_PERSIST_FAILED"

	ErrCodeLocationUnavailable      ErrorCode = "LOCATION_UNAVAILABLE"
	ErrCodeLocationPermissionDenied ErrorCode = "LOCATION_PERMISSION_DENIED"

	ErrCodeRosterLoadFailed       ErrorCode = "ROSTER_LOAD_FAILED"
	ErrCodeRosterValidationFailed ErrorCode = "ROSTER_VALIDATION_FAILED"

	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches any *StandardError with the same code, so sentinels built with
// Sentinel work with errors.Is.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Sentinel returns a comparable error value for code, for use with errors.Is.
func Sentinel(code ErrorCode) *StandardError {
	return &StandardError{Code: code, Message: string(code)}
}

// HasCode reports whether any error in err's chain is a StandardError with code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if !stderrors.As(err, &stdErr) {
		return false
	}
	return stdErr.Code == code
}

func NewMalformedPersistedStateError(namespace, field string, cause error) *StandardError {
	details := fmt.Sprintf("namespace: %s, field: %s", namespace, field)
	if cause != nil {
		details = fmt.Sprintf("%s, error: %s", details, cause.Error())
	}
	return &StandardError{
		Code:      ErrCodeMalformedPersistedState,
		Message:   "Persisted search state could not be restored",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func NewUnparseableMagnitudeError(value string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnparseableMagnitude,
		Message:   "Magnitude value is not a number",
		Details:   fmt.Sprintf("value: %q", value),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidPageError(requested, totalPages int) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPage,
		Message:   "Requested page is out of range",
		Details:   fmt.Sprintf("requested: %d, totalPages: %d", requested, totalPages),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewStatePersistFailedError(namespace string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStatePersistFailed,
		Message:   "Search state could not be saved",
		Details:   fmt.Sprintf("namespace: %s, error: %s", namespace, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewLocationUnavailableError(err error) *StandardError {
	details := "location provider returned no position"
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeLocationUnavailable,
		Message:   "Current location is unavailable",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewLocationPermissionDeniedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeLocationPermissionDenied,
		Message:   "Permission to read the current location was denied",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewRosterLoadFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRosterLoadFailed,
		Message:   "Roster could not be loaded",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewRosterValidationFailedError(source string, problems []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRosterValidationFailed,
		Message:   "Roster data failed schema validation",
		Details:   fmt.Sprintf("source: %s, errors: %s", source, strings.Join(problems, "; ")),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// GetErrorCategory groups codes for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "LOCATION"):
		return "LOCATION"
	case strings.Contains(codeStr, "STATE"):
		return "STATE"
	case strings.Contains(codeStr, "ROSTER"):
		return "ROSTER"
	case strings.Contains(codeStr, "MAGNITUDE") || strings.Contains(codeStr, "PAGE"):
		return "FILTER"
	case strings.Contains(codeStr, "CONFIG"):
		return "CONFIG"
	default:
		return "OTHER"
	}
}
