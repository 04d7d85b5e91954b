package rbac

import (
	"time"

	"github.com/platinummonkey/userdeck/pkg/profiles"
)

// Policy names the predicate a route requires of its caller
type Policy int

const (
	// Anonymous admits every request
	Anonymous Policy = iota
	// SelfOrAdmin admits the target subject or any elevated role
	SelfOrAdmin
	// SelfOrElevated has the SelfOrAdmin predicate; routes use it to carry
	// their own denial message
	SelfOrElevated
	// AdminOnly admits admin and superadmin
	AdminOnly
	// SuperadminOnly admits superadmin
	SuperadminOnly
)

// String returns the policy name used in logs and metrics
func (p Policy) String() string {
	switch p {
	case Anonymous:
		return "anonymous"
	case SelfOrAdmin:
		return "self_or_admin"
	case SelfOrElevated:
		return "self_or_elevated"
	case AdminOnly:
		return "admin_only"
	case SuperadminOnly:
		return "superadmin_only"
	default:
		return "unknown"
	}
}

// SelfScoped reports whether the target subject always satisfies the policy
func (p Policy) SelfScoped() bool {
	return p == SelfOrAdmin || p == SelfOrElevated
}

// Admits reports whether a caller holding role satisfies the role predicate.
// The empty role (no profile) fails every policy except Anonymous.
func (p Policy) Admits(role profiles.Role) bool {
	switch p {
	case Anonymous:
		return true
	case SelfOrAdmin, SelfOrElevated, AdminOnly:
		return role.Elevated()
	case SuperadminOnly:
		return role.AtLeast(profiles.RoleSuperadmin)
	default:
		return false
	}
}

// Outcome is the result class of one authorization
type Outcome string

const (
	OutcomeAllowed         Outcome = "allowed"
	OutcomeUnauthenticated Outcome = "unauthenticated"
	OutcomeDenied          Outcome = "denied"
	OutcomeError           Outcome = "error"
)

// Decision records how a request was authorized
type Decision struct {
	Policy    Policy
	Outcome   Outcome
	SubjectID string
	// Role is the caller's effective role; empty when no lookup happened or
	// no profile exists
	Role profiles.Role
	// Reason is a short machine-friendly explanation
	Reason    string
	CheckedAt time.Time
}

// Allowed reports whether the request may proceed
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllowed
}
