package api

import "fmt"

// ErrorType represents the category of an API error.
type ErrorType string

const (
	ErrorTypeServerError     ErrorType = "server_error"
	ErrorTypeInvalidRequest  ErrorType = "invalid_request"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeServerBusy      ErrorType = "server_busy"
	ErrorTypeTooManyRequests ErrorType = "too_many_requests"
	ErrorTypeGatewayTimeout  ErrorType = "gateway_timeout"
	ErrorTypeShuttingDown    ErrorType = "shutting_down"
)

// APIError represents a structured error with type, param, and message.
// The bridge produces these only for failures it decides on its own
// authority (admission, validation, timeout, shutdown); everything else
// comes verbatim from the host.
type APIError struct {
	Type    ErrorType `json:"type"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse wraps an APIError for JSON serialization as the top-level
// error response body.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewInvalidRequestError creates an APIError for invalid request parameters.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Param:   param,
		Message: message,
	}
}

// NewNotFoundError creates an APIError for unknown routes or resources.
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewServerBusyError creates an APIError for admission rejections on
// blocking routes.
func NewServerBusyError() *APIError {
	return &APIError{
		Type:    ErrorTypeServerBusy,
		Message: "server is busy",
	}
}

// NewTooManyRequestsError creates an APIError for admission rejections on
// the fire-and-forget message channel.
func NewTooManyRequestsError() *APIError {
	return &APIError{
		Type:    ErrorTypeTooManyRequests,
		Message: "too many concurrent requests",
	}
}

// NewGatewayTimeoutError creates an APIError for requests the host never
// decided within the configured budget.
func NewGatewayTimeoutError() *APIError {
	return &APIError{
		Type:    ErrorTypeGatewayTimeout,
		Message: "host did not respond in time",
	}
}

// NewShuttingDownError creates the synthetic APIError delivered to every
// request still pending when the bridge shuts down.
func NewShuttingDownError() *APIError {
	return &APIError{
		Type:    ErrorTypeShuttingDown,
		Message: "server shutting down",
	}
}

// NewServerError creates an APIError for internal failures.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}
