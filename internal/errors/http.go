// Package errors defines the JSON error envelope used by the status API.
package errors

import (
	"encoding/json"
	"net/http"
)

// HTTPError is the body of the error envelope.
type HTTPError struct {
	// Code is a stable machine-readable identifier (e.g., "NOT_FOUND").
	Code string `json:"code"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// HTTPErrorResponse is the envelope every non-2xx response carries.
type HTTPErrorResponse struct {
	Error HTTPError `json:"error"`
}

// WriteJSON writes the envelope with the given status code.
func WriteJSON(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(HTTPErrorResponse{
		Error: HTTPError{Code: code, Message: message},
	})
}

// NotFoundHandler responds with the standard NOT_FOUND envelope.
func NotFoundHandler(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowedHandler responds with the standard METHOD_NOT_ALLOWED
// envelope.
func MethodNotAllowedHandler(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}
