package api

import (
	"net/http"

	"github.com/platinummonkey/userdeck/pkg/middleware"
	"github.com/platinummonkey/userdeck/pkg/rbac"
)

// Denial messages per route
const (
	msgAdminRequired      = "Forbidden: Admin access required."
	msgSuperadminRequired = "Forbidden: SuperAdmin access required."
	msgOwnProfileView     = "Forbidden: You can only view your own profile."
	msgOwnProfileEdit     = "Forbidden: You can only edit your own profile."
)

// Route describes one registered endpoint
type Route struct {
	Method string
	Path   string
	Policy rbac.Policy
	// RateLimited marks routes behind the signup limiter
	RateLimited bool
}

// Routes is the public route table in registration order
var Routes = []Route{
	{http.MethodGet, "/", rbac.Anonymous, false},
	{http.MethodGet, "/api/test", rbac.Anonymous, false},
	{http.MethodPost, "/api/auth/signup", rbac.Anonymous, true},
	{http.MethodGet, "/api/users/check-username", rbac.Anonymous, false},
	{http.MethodGet, "/api/users/by-username/{username}", rbac.Anonymous, false},
	{http.MethodGet, "/api/users", rbac.AdminOnly, false},
	{http.MethodGet, "/api/users/{uid}", rbac.SelfOrAdmin, false},
	{http.MethodPut, "/api/users/{uid}", rbac.SelfOrElevated, false},
	{http.MethodPatch, "/api/users/{uid}/deactivate", rbac.AdminOnly, false},
	{http.MethodPatch, "/api/users/{uid}/activate", rbac.AdminOnly, false},
	{http.MethodPost, "/api/users/{uid}/promote", rbac.SuperadminOnly, false},
}

// setupRoutes configures all the API routes. The literal
// /api/users/check-username is registered before /api/users/{uid} so it is
// never captured as a uid.
func (s *Server) setupRoutes() {
	authn := middleware.NewAuthMiddleware(s.deps.Verifier,
		middleware.WithAuthMetrics(s.deps.Metrics),
		middleware.WithAuthLogger(s.deps.Logger))
	signupLimit := middleware.NewRateLimitMiddleware(s.deps.SignupLimiter, middleware.RateLimitOptions{
		Name:              "signup",
		Message:           middleware.RejectionMessage(s.deps.SignupWindow),
		TrustProxyHeaders: s.deps.TrustProxyHeaders,
		Metrics:           s.deps.Metrics,
		Logger:            s.deps.Logger,
	})
	gate := s.deps.Gate

	protect := func(policy rbac.Policy, denied string, h http.HandlerFunc) http.Handler {
		return authn.Handler(gate.Require(policy, denied)(h))
	}

	// Public routes
	s.router.HandleFunc("/", s.root).Methods(http.MethodGet)
	s.router.HandleFunc("/api/test", s.apiTest).Methods(http.MethodGet)
	s.router.Handle("/api/auth/signup", signupLimit.Handler(http.HandlerFunc(s.signup))).Methods(http.MethodPost)
	s.router.HandleFunc("/api/users/check-username", s.checkUsername).Methods(http.MethodGet)
	s.router.HandleFunc("/api/users/by-username/{username}", s.emailByUsername).Methods(http.MethodGet)

	// Gated routes
	s.router.Handle("/api/users", protect(rbac.AdminOnly, msgAdminRequired, s.listUsers)).Methods(http.MethodGet)
	s.router.Handle("/api/users/{uid}", protect(rbac.SelfOrAdmin, msgOwnProfileView, s.getUser)).Methods(http.MethodGet)
	s.router.Handle("/api/users/{uid}", protect(rbac.SelfOrElevated, msgOwnProfileEdit, s.updateUser)).Methods(http.MethodPut)
	s.router.Handle("/api/users/{uid}/deactivate", protect(rbac.AdminOnly, msgAdminRequired, s.deactivateUser)).Methods(http.MethodPatch)
	s.router.Handle("/api/users/{uid}/activate", protect(rbac.AdminOnly, msgAdminRequired, s.activateUser)).Methods(http.MethodPatch)
	s.router.Handle("/api/users/{uid}/promote", protect(rbac.SuperadminOnly, msgSuperadminRequired, s.promoteUser)).Methods(http.MethodPost)
}
