package errors

import (
	stderrors "errors"
	"time"
)

// Notice is the dismissible, moderator-facing rendering of an error.
type Notice struct {
	Code        ErrorCode `json:"code"`
	Message     string    `json:"message"`
	Dismissible bool      `json:"dismissible"`
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// ErrorHandler turns errors from the search packages into log lines and
// notices.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// IsSilent reports whether code is recovered locally and never shown to the
// moderator.
func IsSilent(code ErrorCode) bool {
	switch code {
	case ErrCodeMalformedPersistedState, ErrCodeUnparseableMagnitude, ErrCodeInvalidPage:
		return true
	}
	return false
}

// ToNotice returns the notice for err, or nil when err is silently recovered.
func ToNotice(err error) *Notice {
	stdErr := Normalize(err)
	if stdErr == nil || IsSilent(stdErr.Code) {
		return nil
	}
	msg := stdErr.Message
	switch stdErr.Code {
	case ErrCodeLocationPermissionDenied:
		msg = "Location access was denied. Allow location access or enter coordinates manually."
	case ErrCodeLocationUnavailable:
		msg = "Your location could not be determined. Try again or enter coordinates manually."
	}
	return &Notice{Code: stdErr.Code, Message: msg, Dismissible: true}
}

// Handle logs err and returns its notice (nil for silent errors).
func (h *ErrorHandler) Handle(err error) *Notice {
	stdErr := Normalize(err)
	if stdErr == nil {
		return nil
	}
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if IsSilent(stdErr.Code) {
		h.logger.Warn("recovered search error", fields)
	} else {
		h.logger.Error("search error", fields)
	}
	return ToNotice(stdErr)
}
