package errors

import (
	"fmt"
	"net/http"

	"github.com/CarbonSMASH/push-relay/logger"
)

type ErrorType string

const (
	ValidationError ErrorType = "VALIDATION_ERROR"
	UnauthorizedErr ErrorType = "UNAUTHORIZED"
	NoTokensError   ErrorType = "NO_TOKENS"
	NotFoundError   ErrorType = "NOT_FOUND"
	MethodError     ErrorType = "METHOD_NOT_ALLOWED"
	UpstreamError   ErrorType = "UPSTREAM_UNAVAILABLE"
	StoreError      ErrorType = "STORE_ERROR"
	RateLimitError  ErrorType = "RATE_LIMIT_EXCEEDED"
	ServerError     ErrorType = "SERVER_ERROR"
)

// AppError represents a structured application error. Message is the
// client-facing text; Detail stays server-side in logs.
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Raw        error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Raw
}

// GetHTTPStatus returns the HTTP status code associated with the error.
func (e *AppError) GetHTTPStatus() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

// New creates a new AppError.
func New(errType ErrorType, message string, detail string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     detail,
		HTTPStatus: getHTTPStatus(errType),
	}
}

// Wrap wraps a raw error with AppError context.
func Wrap(err error, errType ErrorType, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:       errType,
		Message:    message,
		Detail:     err.Error(),
		HTTPStatus: getHTTPStatus(errType),
		Raw:        err,
	}
}

// Helper functions for the relay's error taxonomy

// ValidationFailed reports a missing or empty required request field.
func ValidationFailed(message string, details string) *AppError {
	return &AppError{
		Type:       ValidationError,
		Message:    message,
		Detail:     details,
		HTTPStatus: http.StatusBadRequest,
	}
}

// MissingFields is the canonical 400 for incomplete request bodies.
func MissingFields() *AppError {
	return ValidationFailed("Missing required fields", "")
}

// InvalidSecret is the undifferentiated 403 for unknown devices and
// secret mismatches alike. Keeping the two cases indistinguishable avoids
// leaking which device IDs exist.
func InvalidSecret() *AppError {
	return &AppError{
		Type:       UnauthorizedErr,
		Message:    "Invalid secret",
		HTTPStatus: http.StatusForbidden,
	}
}

// NoTokensRegistered reports a push attempt for a device with no bound
// delivery tokens. Records are deleted when their last token is removed,
// so an absent record lands here too.
func NoTokensRegistered() *AppError {
	return &AppError{
		Type:       NoTokensError,
		Message:    "No push tokens registered",
		HTTPStatus: http.StatusNotFound,
	}
}

// UpstreamUnavailable reports a failed or malformed response from the
// push network. The relay never retries; the desktop caller owns retry policy.
func UpstreamUnavailable(err error) *AppError {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return &AppError{
		Type:       UpstreamError,
		Message:    "Push delivery failed",
		Detail:     detail,
		HTTPStatus: http.StatusBadGateway,
		Raw:        err,
	}
}

// NewStoreError logs the original error and returns a sanitized message.
func NewStoreError(err error) *AppError {
	logger.GetLogger().Errorw("Store error", "error", err)
	return &AppError{
		Type:       StoreError,
		Message:    "Storage operation failed",
		Detail:     "Please try again later",
		HTTPStatus: http.StatusInternalServerError,
		Raw:        err,
	}
}

// RateLimitExceeded reports too many requests from one client.
func RateLimitExceeded(message string, retryAfterSeconds int) *AppError {
	return &AppError{
		Type:       RateLimitError,
		Message:    message,
		Detail:     fmt.Sprintf("Retry after %d seconds", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

func InternalServerError(message string) *AppError {
	return &AppError{
		Type:       ServerError,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

func getHTTPStatus(errType ErrorType) int {
	switch errType {
	case ValidationError:
		return http.StatusBadRequest
	case UnauthorizedErr:
		return http.StatusForbidden
	case NoTokensError, NotFoundError:
		return http.StatusNotFound
	case MethodError:
		return http.StatusMethodNotAllowed
	case UpstreamError:
		return http.StatusBadGateway
	case RateLimitError:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
