// Package httputil provides shared HTTP utilities for consistent response handling.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
)

// ErrorResponse is the body written for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

// StatusCoder is implemented by errors that map to an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// Hinter is implemented by errors that carry a suggestion for the caller.
type Hinter interface {
	Hint() string
}

// WriteJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes an error response with an explicit status.
func WriteError(w http.ResponseWriter, status int, message, hint string) {
	WriteJSON(w, status, ErrorResponse{Error: message, Hint: hint})
}

// WriteErr writes err using its StatusCode and Hint when it has them.
// Other errors are written as 500.
func WriteErr(w http.ResponseWriter, err error) {
	WriteError(w, StatusOf(err), err.Error(), HintOf(err))
}

// StatusOf returns the HTTP status of err, or 500.
func StatusOf(err error) int {
	var sc StatusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

// HintOf returns the hint of err, or "".
func HintOf(err error) string {
	var h Hinter
	if errors.As(err, &h) {
		return h.Hint()
	}
	return ""
}

// WriteOK writes a 200 OK response with data.
func WriteOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a 201 Created response with the created resource.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteBadRequest writes a 400 Bad Request error response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, "")
}
