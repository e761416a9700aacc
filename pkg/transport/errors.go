package transport

import (
	"encoding/json"
	"net/http"

	"github.com/bruecke-dev/bruecke/pkg/api"
)

// HTTPStatusFromError maps an APIError type to the corresponding HTTP
// status code. The message-channel admission rejection uses 429 instead of
// 503 and is mapped through ErrorTypeTooManyRequests.
func HTTPStatusFromError(err *api.APIError) int {
	switch err.Type {
	case api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeServerBusy, api.ErrorTypeShuttingDown:
		return http.StatusServiceUnavailable
	case api.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	case api.ErrorTypeGatewayTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes a JSON error body using the ErrorResponse
// wrapper format with an explicit status code.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.APIError, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}

// WriteAPIError writes an APIError response, deriving the status code from
// the error type.
func WriteAPIError(w http.ResponseWriter, apiErr *api.APIError) {
	WriteErrorResponse(w, apiErr, HTTPStatusFromError(apiErr))
}
