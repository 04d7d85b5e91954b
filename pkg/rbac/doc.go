// Package rbac is the authorization gate: it decides whether a verified
// caller may use a route, based on the role stored in the caller's profile.
//
// # Roles and policies
//
// Roles are ordered user < admin < superadmin (see package profiles). A
// route declares one Policy:
//
//	Anonymous       - everyone
//	SelfOrAdmin     - the {uid} subject, or admin/superadmin
//	SelfOrElevated  - same predicate as SelfOrAdmin with its own message
//	AdminOnly       - admin or superadmin
//	SuperadminOnly  - superadmin
//
// # Evaluation
//
// For each request the gate checks, in order:
//
//  1. a verified principal is present (otherwise 401 "Unauthorized.")
//  2. for self-scoped policies, whether the caller is the target; if so the
//     request passes without a store read
//  3. the caller's profile role, read from the store on every request
//  4. the policy predicate (otherwise 403 with the route's message)
//
// A caller without a profile has no role and fails every role predicate. A
// store error answers 500 with a generic message. With WithEnforceActive an
// inactive profile is treated as having no role; by default the active flag
// does not affect authorization.
//
// # Usage
//
//	gate := rbac.NewGate(profileStore, rbac.WithGateMetrics(metrics))
//	authn := middleware.NewAuthMiddleware(verifier)
//	router.Handle("/api/users", authn.Handler(
//		gate.Require(rbac.AdminOnly, "Forbidden: Admin access required.")(listUsers)))
//
// Decisions are counted in userdeck_authz_decisions_total{policy,outcome}.
package rbac
