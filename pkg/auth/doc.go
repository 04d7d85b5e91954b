// Package auth verifies caller identity and administers identity-provider
// accounts.
//
// # Verifiers
//
// A Verifier turns a bearer token into a Principal:
//
//	verifier := auth.NewFirebaseVerifier(ctx, creds.ProjectID)
//	principal, err := verifier.Verify(ctx, auth.BearerToken(r.Header.Get("Authorization")))
//	if errors.Is(err, auth.ErrInvalidCredential) { ... 401 ... }
//
// FirebaseVerifier checks Firebase ID tokens with go-oidc against Google's
// securetoken key set. HMACVerifier accepts HS256 tokens for local
// development and can mint them with Issue.
//
// # Credentials and accounts
//
// LoadCredentials parses the service-account file named by
// GOOGLE_APPLICATION_CREDENTIALS. IdentityToolkitDirectory uses those
// credentials to look up, create and list accounts for operator tooling.
package auth
