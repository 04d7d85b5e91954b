package rbac

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/userdeck/pkg/auth"
	"github.com/platinummonkey/userdeck/pkg/observability"
	"github.com/platinummonkey/userdeck/pkg/profiles"
)

// ProfileLookup resolves a caller's stored profile
type ProfileLookup interface {
	Get(ctx context.Context, id string) (*profiles.Profile, error)
}

// Gate evaluates route policies against the caller's stored role. Every
// request is evaluated on its own; nothing is cached between requests.
type Gate struct {
	lookup        ProfileLookup
	enforceActive bool
	logger        *observability.Logger
	metrics       *observability.Metrics
	now           func() time.Time
}

// GateOption configures a Gate
type GateOption func(*Gate)

// WithEnforceActive treats inactive profiles as having no role
func WithEnforceActive(enforce bool) GateOption {
	return func(g *Gate) { g.enforceActive = enforce }
}

// WithGateLogger sets the logger used for lookup failures
func WithGateLogger(l *observability.Logger) GateOption {
	return func(g *Gate) { g.logger = l }
}

// WithGateMetrics counts decisions per policy and outcome
func WithGateMetrics(m *observability.Metrics) GateOption {
	return func(g *Gate) { g.metrics = m }
}

// NewGate creates a gate reading roles through lookup
func NewGate(lookup ProfileLookup, opts ...GateOption) *Gate {
	g := &Gate{
		lookup: lookup,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize evaluates policy for the caller in authCtx acting on target.
// The error is non-nil only for OutcomeError.
func (g *Gate) Authorize(ctx context.Context, policy Policy, authCtx *auth.AuthContext, target string) (Decision, error) {
	d, err := g.authorize(ctx, policy, authCtx, target)
	d.Policy = policy
	d.CheckedAt = g.now()
	if g.metrics != nil {
		g.metrics.AuthzDecisionsTotal.WithLabelValues(policy.String(), string(d.Outcome)).Inc()
	}
	return d, err
}

func (g *Gate) authorize(ctx context.Context, policy Policy, authCtx *auth.AuthContext, target string) (Decision, error) {
	if policy == Anonymous {
		return Decision{Outcome: OutcomeAllowed, SubjectID: authCtx.SubjectID(), Reason: "anonymous route"}, nil
	}
	if !authCtx.Authenticated() {
		return Decision{Outcome: OutcomeUnauthenticated, Reason: "no verified principal"}, nil
	}

	subject := authCtx.SubjectID()
	if policy.SelfScoped() && target != "" && subject == target {
		return Decision{Outcome: OutcomeAllowed, SubjectID: subject, Reason: "self"}, nil
	}

	role, err := g.effectiveRole(ctx, subject)
	if err != nil {
		return Decision{Outcome: OutcomeError, SubjectID: subject, Reason: "profile lookup failed"},
			fmt.Errorf("failed to look up caller profile: %w", err)
	}

	d := Decision{SubjectID: subject, Role: role}
	if policy.Admits(role) {
		d.Outcome = OutcomeAllowed
		d.Reason = "granted by role " + string(role)
	} else {
		d.Outcome = OutcomeDenied
		d.Reason = "role does not satisfy policy"
		if role == "" {
			d.Reason = "no role"
		}
	}
	return d, nil
}

// effectiveRole returns the caller's role, or "" when the caller has no
// profile (or an inactive one under active enforcement)
func (g *Gate) effectiveRole(ctx context.Context, subject string) (profiles.Role, error) {
	p, err := g.lookup.Get(ctx, subject)
	if errors.Is(err, profiles.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if g.enforceActive && !p.Active {
		return "", nil
	}
	return p.Role, nil
}
