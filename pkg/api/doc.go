// Package api is the HTTP surface of userdeck. It binds the identity
// verifier, the authorization gate and the profile service to a gorilla/mux
// router.
//
// # Routes
//
//	GET   /                                  plain-text greeting
//	GET   /api/test                          {message, timestamp}
//	POST  /api/auth/signup                   create profile (rate limited per IP)
//	GET   /api/users/check-username          {available}
//	GET   /api/users/by-username/{username}  {email}
//	GET   /api/users                         admin: list with q, active, sort, order
//	GET   /api/users/{uid}                   self or admin
//	PUT   /api/users/{uid}                   self or admin
//	PATCH /api/users/{uid}/deactivate        admin
//	PATCH /api/users/{uid}/activate          admin
//	POST  /api/users/{uid}/promote           superadmin
//
// # Errors
//
// Field validation failures answer 400 with {"errors": [...]}. Every other
// failure answers {"message": "..."}: 401 without a valid bearer token, 403
// when the gate denies, 404 for an unknown profile, 409 for a duplicate
// subject id or taken username, 429 from the signup limiter and 500 with a
// generic message for store failures, which are logged.
//
// # Usage
//
//	server := api.NewServer(api.Dependencies{
//		Profiles: profiles.NewService(store),
//		Verifier: verifier,
//		Metrics:  metrics,
//		Logger:   logger,
//	})
//	http.ListenAndServe(":5000", server)
package api
