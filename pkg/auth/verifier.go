package auth

import (
	"context"
	"strings"
)

// Verifier turns a raw bearer token into a Principal. Implementations must
// return an error wrapping ErrInvalidCredential for any token they reject.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Principal, error)
}

// VerifierFunc adapts a function to the Verifier interface
type VerifierFunc func(ctx context.Context, rawToken string) (*Principal, error)

// Verify calls f
func (f VerifierFunc) Verify(ctx context.Context, rawToken string) (*Principal, error) {
	return f(ctx, rawToken)
}

// BearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively; "" is returned when absent.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
