package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of an API error.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a malformed or invalid request.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeSessionNotFound indicates an unknown session ID.
	ErrorTypeSessionNotFound ErrorType = "session_not_found"

	// ErrorTypeConflict indicates a concurrent turn on the same session.
	ErrorTypeConflict ErrorType = "conflict"

	// ErrorTypeRetrievalUnavailable indicates the retrieval backend failed.
	ErrorTypeRetrievalUnavailable ErrorType = "retrieval_unavailable"

	// ErrorTypeGenerationFailure indicates the generation backend failed.
	ErrorTypeGenerationFailure ErrorType = "generation_failure"

	// ErrorTypeServer indicates an internal server error.
	ErrorTypeServer ErrorType = "server"
)

// APIError is the canonical error returned by gateway components and
// translated to HTTP responses and stream error frames by the server layer.
type APIError struct {
	// Type is the category of error
	Type ErrorType `json:"type"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// StatusCode is the suggested HTTP status code
	StatusCode int `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// HTTPStatusCode returns the appropriate HTTP status code for this error.
func (e *APIError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}

	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeSessionNotFound:
		return http.StatusNotFound
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeRetrievalUnavailable:
		return http.StatusServiceUnavailable
	case ErrorTypeGenerationFailure:
		return http.StatusBadGateway
	case ErrorTypeServer:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// WithStatusCode sets a specific HTTP status code.
func (e *APIError) WithStatusCode(code int) *APIError {
	e.StatusCode = code
	return e
}

// NewAPIError creates a new API error.
func NewAPIError(errType ErrorType, message string) *APIError {
	return &APIError{
		Type:    errType,
		Message: message,
	}
}

// Convenience constructors for common errors

// ErrInvalidRequest creates an invalid request error.
func ErrInvalidRequest(message string) *APIError {
	return NewAPIError(ErrorTypeInvalidRequest, message)
}

// ErrSessionNotFound creates a session not found error.
func ErrSessionNotFound(id string) *APIError {
	return NewAPIError(ErrorTypeSessionNotFound, fmt.Sprintf("session %s not found", id))
}

// ErrConcurrentTurn creates a conflict error for a session that already has a
// turn in flight.
func ErrConcurrentTurn(id string) *APIError {
	return NewAPIError(ErrorTypeConflict, fmt.Sprintf("session %s already has a turn in progress", id))
}

// ErrRetrievalUnavailable creates a retrieval backend failure error.
func ErrRetrievalUnavailable(message string) *APIError {
	return NewAPIError(ErrorTypeRetrievalUnavailable, message)
}

// ErrGenerationFailure creates a generation backend failure error.
func ErrGenerationFailure(message string) *APIError {
	return NewAPIError(ErrorTypeGenerationFailure, message)
}

// ErrServer creates a server error.
func ErrServer(message string) *APIError {
	return NewAPIError(ErrorTypeServer, message)
}

// IsNotFound reports whether err is a session_not_found APIError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == ErrorTypeSessionNotFound
}

// IsConflict reports whether err is a conflict APIError.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Type == ErrorTypeConflict
}
