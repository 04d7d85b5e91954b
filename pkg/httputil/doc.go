// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
// Every status reply carries a {"message": ...} body:
//
//	httputil.WriteSuccessMessage(w, "User updated successfully.")
//	httputil.WriteCreated(w, "User document created successfully.")
//	httputil.WriteForbidden(w, "Forbidden: Admin access required.")
//
// Field validation failures are written as {"errors": [...]}:
//
//	httputil.WriteValidationErrors(w, v.Errors())
//
// Upstream failures are logged with the request logger and answered with
// InternalErrorMessage so store or identity-provider details never leak:
//
//	httputil.WriteInternalError(w, r, err)
//
// # Request Parsing
//
//	var req SignupRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//	uid, ok := httputil.ParsePathStringOrError(w, r, "uid")
//	active, err := httputil.ParseQueryOptionalBool(r, "active")
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RecoveryMiddleware(logger),
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.MaxBytesMiddleware(httputil.DefaultMaxBodyBytes),
//	)
//
// # Related Packages
//
//   - pkg/middleware: Authentication and rate limiting middleware
//   - pkg/rbac: Role policies
package httputil
