package rbac

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/userdeck/pkg/httputil"
	"github.com/platinummonkey/userdeck/pkg/middleware"
	"github.com/platinummonkey/userdeck/pkg/observability"
)

// UnauthorizedMessage is returned when a gated route sees no principal
const UnauthorizedMessage = "Unauthorized."

// TargetParam is the route variable naming the subject a self-scoped policy
// compares the caller against
const TargetParam = "uid"

// Require creates middleware that admits only callers satisfying policy.
// It expects middleware.AuthMiddleware to have run; deniedMessage is the 403
// body message.
func (g *Gate) Require(policy Policy, deniedMessage string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			target := mux.Vars(r)[TargetParam]

			d, err := g.Authorize(r.Context(), policy, middleware.GetAuthContext(r), target)
			switch d.Outcome {
			case OutcomeAllowed:
				next.ServeHTTP(w, r)
			case OutcomeUnauthenticated:
				httputil.WriteUnauthorized(w, UnauthorizedMessage)
			case OutcomeDenied:
				g.log(r).WithFields(map[string]interface{}{
					"policy": policy.String(),
					"role":   string(d.Role),
					"target": target,
				}).Debug("authorization denied")
				httputil.WriteForbidden(w, deniedMessage)
			default:
				httputil.WriteInternalError(w, r, err)
			}
		})
	}
}

func (g *Gate) log(r *http.Request) *observability.Logger {
	if g.logger != nil {
		return g.logger
	}
	return observability.FromContext(r.Context())
}
