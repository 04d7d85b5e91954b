package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/platinummonkey/userdeck/pkg/httputil"
	"github.com/platinummonkey/userdeck/pkg/observability"
	"github.com/platinummonkey/userdeck/pkg/profiles"
	"github.com/platinummonkey/userdeck/pkg/validation"
)

// SignupRequest is the body of POST /api/auth/signup
type SignupRequest struct {
	UID      string `json:"uid"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
}

// UpdateUserRequest is the body of PUT /api/users/{uid}
type UpdateUserRequest struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
}

// AvailabilityResponse is the body of GET /api/users/check-username
type AvailabilityResponse struct {
	Available bool `json:"available"`
}

// EmailResponse is the body of GET /api/users/by-username/{username}
type EmailResponse struct {
	Email string `json:"email"`
}

// signup handles POST /api/auth/signup
func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	v := validation.NewValidator(validation.LocationBody).
		NotEmpty("uid", strings.TrimSpace(req.UID), "UID is required").
		Email("email", strings.TrimSpace(req.Email), "Must be a valid email address").
		NotEmpty("fullName", strings.TrimSpace(req.FullName), "Full name is required").
		NotEmpty("username", profiles.HandleBody(req.Username), "Username is required")
	if !v.Valid() {
		httputil.WriteValidationErrors(w, v.Errors())
		return
	}

	p, err := s.deps.Profiles.Signup(r.Context(), profiles.SignupInput{
		ID:       req.UID,
		Email:    req.Email,
		FullName: req.FullName,
		Handle:   req.Username,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.FromContext(r.Context()).WithFields(map[string]interface{}{
		"uid":      p.ID,
		"username": p.Handle,
	}).Info("profile created")
	httputil.WriteCreated(w, "User document created successfully.")
}

// checkUsername handles GET /api/users/check-username?username=
func (s *Server) checkUsername(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if profiles.HandleBody(username) == "" {
		httputil.WriteBadRequest(w, msgUsernameRequired)
		return
	}

	available, err := s.deps.Profiles.HandleAvailable(r.Context(), username)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, AvailabilityResponse{Available: available})
}

// emailByUsername handles GET /api/users/by-username/{username}
func (s *Server) emailByUsername(w http.ResponseWriter, r *http.Request) {
	username, ok := httputil.ParsePathStringOrError(w, r, "username")
	if !ok {
		return
	}

	email, err := s.deps.Profiles.EmailForHandle(r.Context(), username)
	if errors.Is(err, profiles.ErrInvalidInput) {
		// A handle made only of "@" cannot exist
		err = profiles.ErrNotFound
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, EmailResponse{Email: email})
}

// listUsers handles GET /api/users?q=&sort=&order=&active=
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	v := validation.NewValidator(validation.LocationQuery)

	active, err := httputil.ParseQueryOptionalBool(r, "active")
	v.Check(err == nil, "active", r.URL.Query().Get("active"), "Active must be true or false")

	sortParam := r.URL.Query().Get("sort")
	sortField, err := profiles.ParseSortField(sortParam)
	v.Check(err == nil, "sort", sortParam, "Unsupported sort field")

	if !v.Valid() {
		httputil.WriteValidationErrors(w, v.Errors())
		return
	}

	query := profiles.ListQuery{
		Prefix:     r.URL.Query().Get("q"),
		Active:     active,
		Sort:       sortField,
		Descending: strings.EqualFold(r.URL.Query().Get("order"), "desc"),
	}
	users, err := s.deps.Profiles.List(r.Context(), query)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if users == nil {
		users = []*profiles.Profile{}
	}
	_ = httputil.WriteSuccess(w, users)
}

// getUser handles GET /api/users/{uid}
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	uid, ok := httputil.ParsePathStringOrError(w, r, "uid")
	if !ok {
		return
	}

	p, err := s.deps.Profiles.Get(r.Context(), uid)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httputil.WriteSuccess(w, p)
}

// updateUser handles PUT /api/users/{uid}. The gate has already run, so
// validation details are only reported to callers allowed to edit.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	uid, ok := httputil.ParsePathStringOrError(w, r, "uid")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	v := validation.NewValidator(validation.LocationBody).
		NotEmpty("fullName", strings.TrimSpace(req.FullName), "Full name is required").
		NotEmpty("username", profiles.HandleBody(req.Username), "Username is required")
	if !v.Valid() {
		httputil.WriteValidationErrors(w, v.Errors())
		return
	}

	if err := s.deps.Profiles.Update(r.Context(), uid, profiles.UpdateInput{
		FullName: req.FullName,
		Handle:   req.Username,
	}); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccessMessage(w, "User updated successfully.")
}

// deactivateUser handles PATCH /api/users/{uid}/deactivate
func (s *Server) deactivateUser(w http.ResponseWriter, r *http.Request) {
	s.setActive(w, r, false, "User deactivated successfully.")
}

// activateUser handles PATCH /api/users/{uid}/activate
func (s *Server) activateUser(w http.ResponseWriter, r *http.Request) {
	s.setActive(w, r, true, "User activated successfully.")
}

func (s *Server) setActive(w http.ResponseWriter, r *http.Request, active bool, message string) {
	uid, ok := httputil.ParsePathStringOrError(w, r, "uid")
	if !ok {
		return
	}
	if err := s.deps.Profiles.SetActive(r.Context(), uid, active); err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.FromContext(r.Context()).WithFields(map[string]interface{}{
		"target": uid,
		"active": active,
	}).Info("profile status changed")
	httputil.WriteSuccessMessage(w, message)
}

// promoteUser handles POST /api/users/{uid}/promote
func (s *Server) promoteUser(w http.ResponseWriter, r *http.Request) {
	uid, ok := httputil.ParsePathStringOrError(w, r, "uid")
	if !ok {
		return
	}
	if err := s.deps.Profiles.Promote(r.Context(), uid); err != nil {
		writeServiceError(w, r, err)
		return
	}

	observability.FromContext(r.Context()).WithField("target", uid).Info("profile promoted to admin")
	httputil.WriteSuccessMessage(w, "User promoted to admin successfully.")
}
