package helpers

import (
	"encoding/json"
	"net/http"
)

// Error codes for API error responses. Use these with WriteJSONError.
const (
	ErrCodeBadRequest              = "bad_request"
	ErrCodeUnauthorized            = "unauthorized"
	ErrCodeForbidden               = "forbidden"
	ErrCodeNotFound                = "not_found"
	ErrCodeConflict                = "conflict"
	ErrCodeInvalidTransition       = "invalid_transition"
	ErrCodePaymentsIncomplete      = "payments_incomplete"
	ErrCodeMembershipCountMismatch = "membership_count_mismatch"
	ErrCodeContributionOutOfOrder  = "contribution_out_of_order"
	ErrCodeInternalError           = "internal_error"
)

// APIError is the error object in the standardized API response envelope.
// Details carries structured context for some codes, e.g. outstanding members for payments_incomplete.
// swagger:model APIError
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// APIResponse is the standardized envelope for all API responses.
// On success: Data is set, Error is nil. On error: Data is nil, Error is set.
// swagger:model APIResponse
type APIResponse struct {
	Data  any       `json:"data"`
	Error *APIError `json:"error"`
}

func writeEnvelope(w http.ResponseWriter, statusCode int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSONSuccess writes data inside the envelope with a nil error.
func WriteJSONSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeEnvelope(w, statusCode, APIResponse{Data: data})
}

// WriteJSONError writes a nil data envelope carrying code and message.
func WriteJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSONErrorDetails(w, statusCode, code, message, nil)
}

// WriteJSONErrorDetails is WriteJSONError with structured details attached to the error.
func WriteJSONErrorDetails(w http.ResponseWriter, statusCode int, code, message string, details any) {
	writeEnvelope(w, statusCode, APIResponse{Error: &APIError{Code: code, Message: message, Details: details}})
}
