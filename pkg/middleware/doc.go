// Package middleware provides HTTP middleware for bearer authentication and
// rate limiting.
//
// # Authentication
//
// AuthMiddleware reads "Authorization: Bearer <token>", verifies it with an
// auth.Verifier and stores an *auth.AuthContext in the request context:
//
//	authn := middleware.NewAuthMiddleware(verifier, middleware.WithAuthMetrics(metrics))
//	router.Handle("/api/users", authn.Handler(listUsers))
//
// A missing token yields 401 {"message":"No token provided."}; a token the
// verifier rejects yields 401 {"message":"Invalid or expired token."}. When the
// verifier fails for any other reason, such as an unreachable key endpoint,
// the request gets a 500.
//
// # Rate limiting
//
// Two Limiter implementations share one HTTP middleware:
//
//   - SlidingWindowLimiter keeps per-key counters in process memory. The
//     estimate for a key is previous*(window-elapsed)/window + current. Keys
//     idle for two windows expire and the number of tracked keys is bounded
//     by MaxKeys, least recently used first. State resets on restart.
//   - DistributedRateLimiter keeps a fixed-window counter per key in Redis
//     (INCR, then EXPIRE when the key has no TTL) so all instances share it.
//
// RateLimitMiddleware keys requests by client IP and sets the RateLimit-Limit,
// RateLimit-Remaining and RateLimit-Reset headers. Rejected requests get 429
// with Retry-After. Limiter errors fail open.
//
//	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
//	signup := middleware.NewRateLimitMiddleware(limiter, middleware.RateLimitOptions{Name: "signup"})
//	router.Handle("/api/auth/signup", signup.Handler(handler))
//
// Forwarding headers are ignored unless TrustProxyHeaders is set.
package middleware
