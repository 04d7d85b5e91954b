package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/platinummonkey/userdeck/pkg/auth"
	"github.com/platinummonkey/userdeck/pkg/httputil"
	"github.com/platinummonkey/userdeck/pkg/middleware"
	"github.com/platinummonkey/userdeck/pkg/observability"
	"github.com/platinummonkey/userdeck/pkg/profiles"
	"github.com/platinummonkey/userdeck/pkg/rbac"
)

// Dependencies are the collaborators the API is built from. They are
// constructed once at startup and shared by every request.
type Dependencies struct {
	Profiles *profiles.Service
	Verifier auth.Verifier
	Gate     *rbac.Gate

	// SignupLimiter bounds POST /api/auth/signup per client IP
	SignupLimiter     middleware.Limiter
	// SignupWindow is the limiter's counting window, quoted in 429 bodies
	SignupWindow      time.Duration
	TrustProxyHeaders bool

	// CORSOrigins defaults to allowing every origin
	CORSOrigins []string

	// Optional
	Metrics *observability.Metrics
	Logger  *observability.Logger
	Tracing bool
	Now     func() time.Time
}

// Server represents our API server
type Server struct {
	deps    Dependencies
	router  *mux.Router
	handler http.Handler
}

// NewServer creates a new API server
func NewServer(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Gate == nil {
		deps.Gate = rbac.NewGate(deps.Profiles.Store(),
			rbac.WithGateMetrics(deps.Metrics),
			rbac.WithGateLogger(deps.Logger))
	}
	if deps.SignupLimiter == nil {
		deps.SignupLimiter = middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
	}
	if deps.SignupWindow <= 0 {
		deps.SignupWindow = middleware.DefaultRateLimitConfig().Window
	}
	if len(deps.CORSOrigins) == 0 {
		deps.CORSOrigins = []string{"*"}
	}

	s := &Server{
		deps:   deps,
		router: mux.NewRouter(),
	}
	s.setupRoutes()
	s.handler = s.buildHandler()
	return s
}

// Router exposes the route table
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler with the full middleware chain
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// buildHandler wraps the router with the cross-cutting middleware:
// recovery, request id, access log, CORS and body limits. Metrics run
// inside the router so the route template is known.
func (s *Server) buildHandler() http.Handler {
	if s.deps.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.deps.Metrics))
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: s.deps.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", httputil.RequestIDHeader},
		ExposedHeaders: []string{
			"RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset",
			"Retry-After", httputil.RequestIDHeader,
		},
		MaxAge: 3600,
	})

	h := httputil.Chain(
		httputil.RecoveryMiddleware(s.deps.Logger),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.deps.Logger),
		corsHandler.Handler,
		httputil.MaxBytesMiddleware(httputil.DefaultMaxBodyBytes),
	)(s.router)

	if s.deps.Tracing {
		h = observability.InstrumentHandler(h, "userdeck")
	}
	return h
}
