package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/platinummonkey/userdeck/pkg/auth"
	"github.com/platinummonkey/userdeck/pkg/contextkeys"
	"github.com/platinummonkey/userdeck/pkg/httputil"
	"github.com/platinummonkey/userdeck/pkg/observability"
)

const (
	msgNoToken      = "No token provided."
	msgInvalidToken = "Invalid or expired token."
)

// AuthMiddleware verifies bearer tokens and stores the resulting
// *auth.AuthContext in the request context
type AuthMiddleware struct {
	verifier auth.Verifier
	metrics  *observability.Metrics
	logger   *observability.Logger
}

// AuthOption configures an AuthMiddleware
type AuthOption func(*AuthMiddleware)

// WithAuthMetrics counts verification outcomes
func WithAuthMetrics(m *observability.Metrics) AuthOption {
	return func(a *AuthMiddleware) { a.metrics = m }
}

// WithAuthLogger sets the logger used for verifier failures
func WithAuthLogger(l *observability.Logger) AuthOption {
	return func(a *AuthMiddleware) { a.logger = l }
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(verifier auth.Verifier, opts ...AuthOption) *AuthMiddleware {
	m := &AuthMiddleware{verifier: verifier}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler wraps an HTTP handler with authentication
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r.Header.Get("Authorization"))
		if token == "" {
			m.record("missing")
			unauthorizedResponse(w, msgNoToken)
			return
		}

		principal, err := m.verifier.Verify(r.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredential) || errors.Is(err, auth.ErrMissingCredential) {
				m.record("invalid")
				unauthorizedResponse(w, msgInvalidToken)
				return
			}
			// The provider could not decide, so the token is neither valid nor invalid
			m.record("error")
			m.log(r).WithError(err).Error("token verification failed")
			writeMessage(w, http.StatusInternalServerError, httputil.InternalErrorMessage)
			return
		}

		m.record("valid")
		ctx := contextkeys.WithAuth(r.Context(), &auth.AuthContext{Principal: principal})
		ctx = contextkeys.WithUserID(ctx, principal.SubjectID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) record(result string) {
	if m.metrics != nil {
		m.metrics.TokenVerificationsTotal.WithLabelValues(result).Inc()
	}
}

func (m *AuthMiddleware) log(r *http.Request) *observability.Logger {
	if m.logger != nil {
		return m.logger.WithField("request_id", contextkeys.GetRequestID(r.Context()))
	}
	return observability.FromContext(r.Context())
}

func unauthorizedResponse(w http.ResponseWriter, message string) {
	writeMessage(w, http.StatusUnauthorized, message)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// GetAuthContext extracts auth context from request. It returns nil when
// the auth middleware did not run.
func GetAuthContext(r *http.Request) *auth.AuthContext {
	authCtx, _ := r.Context().Value(contextkeys.AuthKey).(*auth.AuthContext)
	return authCtx
}
