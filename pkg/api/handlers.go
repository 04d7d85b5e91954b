package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/userdeck/pkg/httputil"
	"github.com/platinummonkey/userdeck/pkg/profiles"
)

// apiTestTimeLayout matches the ISO-8601 form with milliseconds in UTC
const apiTestTimeLayout = "2006-01-02T15:04:05.000Z"

const (
	msgUserNotFound     = "User not found."
	msgProfileExists    = "User profile already exists."
	msgHandleTaken      = "Username is already taken."
	msgUsernameRequired = "Username is required."
)

// TestResponse is the body of GET /api/test
type TestResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// root handles GET /
func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Hello from the backend!"))
}

// apiTest handles GET /api/test
func (s *Server) apiTest(w http.ResponseWriter, r *http.Request) {
	_ = httputil.WriteSuccess(w, TestResponse{
		Message:   "Backend is working!",
		Timestamp: s.deps.Now().UTC().Format(apiTestTimeLayout),
	})
}

// writeServiceError maps profile service errors to responses. Anything
// unrecognized is logged and answered with the generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, profiles.ErrNotFound):
		httputil.WriteNotFound(w, msgUserNotFound)
	case errors.Is(err, profiles.ErrAlreadyExists):
		httputil.WriteConflict(w, msgProfileExists)
	case errors.Is(err, profiles.ErrHandleTaken):
		httputil.WriteConflict(w, msgHandleTaken)
	case errors.Is(err, profiles.ErrInvalidInput):
		httputil.WriteBadRequest(w, err.Error())
	default:
		httputil.WriteInternalError(w, r, err)
	}
}
