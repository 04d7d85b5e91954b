package auth

import "errors"

var (
	// ErrMissingCredential means the request carried no bearer token
	ErrMissingCredential = errors.New("no credential provided")
	// ErrInvalidCredential means the token failed verification
	ErrInvalidCredential = errors.New("invalid or expired credential")
	// ErrIdentityUnavailable means the identity provider could not be
	// reached, so the token could be neither accepted nor rejected
	ErrIdentityUnavailable = errors.New("identity provider unavailable")
)

// Principal is the verified identity behind a request
type Principal struct {
	SubjectID     string `json:"uid"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
	Provider      string `json:"provider,omitempty"`
}

// AuthContext is what the auth middleware stores in the request context.
// Principal is nil for anonymous requests.
type AuthContext struct {
	Principal *Principal
}

// Authenticated reports whether a verified principal is present
func (a *AuthContext) Authenticated() bool {
	return a != nil && a.Principal != nil
}

// SubjectID returns the principal's subject or "" when anonymous
func (a *AuthContext) SubjectID() string {
	if !a.Authenticated() {
		return ""
	}
	return a.Principal.SubjectID
}
