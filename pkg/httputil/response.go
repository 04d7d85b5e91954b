// Package httputil provides HTTP handler utilities for consistent error handling,
// JSON encoding/decoding, and request parsing.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/platinummonkey/userdeck/pkg/observability"
	"github.com/platinummonkey/userdeck/pkg/validation"
)

// InternalErrorMessage is the only body a 500 ever carries
const InternalErrorMessage = "An unexpected error occurred. Please try again later."

// MessageResponse is the {"message": ...} body used by every status reply
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationErrorResponse is the 400 body for failed field rules
type ValidationErrorResponse struct {
	Errors validation.Errors `json:"errors"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteMessage writes {"message": message} with the given status code
func WriteMessage(w http.ResponseWriter, status int, message string) {
	_ = WriteJSON(w, status, MessageResponse{Message: message})
}

// WriteError writes err's text as the message. Only use it for errors whose
// text is safe to show to callers.
func WriteError(w http.ResponseWriter, status int, err error) {
	WriteMessage(w, status, err.Error())
}

// WriteValidationErrors writes a 400 with the field errors
func WriteValidationErrors(w http.ResponseWriter, errs validation.Errors) {
	_ = WriteJSON(w, http.StatusBadRequest, ValidationErrorResponse{Errors: errs})
}

// WriteInternalError logs err with the request's logger and writes a 500
// with the generic message
func WriteInternalError(w http.ResponseWriter, r *http.Request, err error) {
	observability.FromContext(r.Context()).
		WithError(err).
		WithFields(map[string]interface{}{"method": r.Method, "path": r.URL.Path}).
		Error("request failed")
	WriteMessage(w, http.StatusInternalServerError, InternalErrorMessage)
}

// WriteCreated writes a 201 with a message
func WriteCreated(w http.ResponseWriter, message string) {
	WriteMessage(w, http.StatusCreated, message)
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteSuccessMessage writes a 200 with a message
func WriteSuccessMessage(w http.ResponseWriter, message string) {
	WriteMessage(w, http.StatusOK, message)
}

// WriteBadRequest writes a bad request error (400)
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteMessage(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes an unauthorized error (401)
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteMessage(w, http.StatusUnauthorized, message)
}

// WriteForbidden writes a forbidden error (403)
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteMessage(w, http.StatusForbidden, message)
}

// WriteNotFound writes a not found error (404)
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteMessage(w, http.StatusNotFound, message)
}

// WriteConflict writes a conflict error (409)
func WriteConflict(w http.ResponseWriter, message string) {
	WriteMessage(w, http.StatusConflict, message)
}

// WriteTooManyRequests writes a rate limit error (429)
func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteMessage(w, http.StatusTooManyRequests, message)
}
