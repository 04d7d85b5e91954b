package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

const (
	// FirebaseIssuerPrefix is followed by the project id in the iss claim
	FirebaseIssuerPrefix = "https://securetoken.google.com/"
	// FirebaseJWKSURL publishes the keys that sign Firebase ID tokens
	FirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
)

// FirebaseVerifier checks Firebase ID tokens: RS256 signature against the
// securetoken keys, issuer bound to the project, audience equal to the
// project id, unexpired, non-empty subject. Results are never cached.
type FirebaseVerifier struct {
	projectID string
	verifier  *oidc.IDTokenVerifier
}

type firebaseClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Firebase      struct {
		SignInProvider string `json:"sign_in_provider"`
	} `json:"firebase"`
}

// NewFirebaseVerifier verifies against the remote key set. ctx scopes the
// key fetches and must outlive the verifier.
func NewFirebaseVerifier(ctx context.Context, projectID string) *FirebaseVerifier {
	return NewFirebaseVerifierWithKeySet(projectID, oidc.NewRemoteKeySet(ctx, FirebaseJWKSURL))
}

// NewFirebaseVerifierWithKeySet uses the given key set, e.g. an
// oidc.StaticKeySet in tests.
func NewFirebaseVerifierWithKeySet(projectID string, keySet oidc.KeySet) *FirebaseVerifier {
	return &FirebaseVerifier{
		projectID: projectID,
		verifier: oidc.NewVerifier(FirebaseIssuerPrefix+projectID, fetchTrackingKeySet{keySet}, &oidc.Config{
			ClientID:             projectID,
			SupportedSigningAlgs: []string{oidc.RS256},
		}),
	}
}

// ProjectID returns the project the verifier is bound to
func (v *FirebaseVerifier) ProjectID() string {
	return v.projectID
}

func (v *FirebaseVerifier) Verify(ctx context.Context, rawToken string) (*Principal, error) {
	if rawToken == "" {
		return nil, ErrMissingCredential
	}

	failure := &keyFetchFailure{}
	idToken, err := v.verifier.Verify(context.WithValue(ctx, keyFetchFailureKey{}, failure), rawToken)
	if err != nil {
		if failure.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIdentityUnavailable, failure.err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if idToken.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidCredential)
	}

	var claims firebaseClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims: %v", ErrInvalidCredential, err)
	}

	return &Principal{
		SubjectID:     idToken.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Provider:      claims.Firebase.SignInProvider,
	}, nil
}

type keyFetchFailureKey struct{}

type keyFetchFailure struct {
	err error
}

// fetchTrackingKeySet records key set errors that wrap a cause. RemoteKeySet
// wraps only key fetch failures; bad signatures and malformed tokens are
// flat errors. The verifier flattens everything it gets back, so the failure
// travels out through the context instead.
type fetchTrackingKeySet struct {
	oidc.KeySet
}

func (k fetchTrackingKeySet) VerifySignature(ctx context.Context, jwt string) ([]byte, error) {
	payload, err := k.KeySet.VerifySignature(ctx, jwt)
	if err != nil && errors.Unwrap(err) != nil {
		if f, ok := ctx.Value(keyFetchFailureKey{}).(*keyFetchFailure); ok {
			f.err = err
		}
	}
	return payload, err
}
