package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACVerifier_RoundTrip(t *testing.T) {
	verifier, err := NewHMACVerifier([]byte("development-secret"), "userdeck-dev")
	require.NoError(t, err)

	token, err := verifier.Issue("uid-1", "dev@example.com", time.Hour)
	require.NoError(t, err)

	principal, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", principal.SubjectID)
	assert.Equal(t, "dev@example.com", principal.Email)
	assert.True(t, principal.EmailVerified)
	assert.Equal(t, HMACProvider, principal.Provider)
}

func TestHMACVerifier_Rejects(t *testing.T) {
	verifier, err := NewHMACVerifier([]byte("development-secret"), "userdeck-dev")
	require.NoError(t, err)
	other, err := NewHMACVerifier([]byte("some-other-secret!"), "userdeck-dev")
	require.NoError(t, err)
	foreign, err := NewHMACVerifier([]byte("development-secret"), "elsewhere")
	require.NoError(t, err)

	fromOther, _ := other.Issue("uid-1", "", time.Hour)
	fromForeign, _ := foreign.Issue("uid-1", "", time.Hour)
	expired, _ := verifier.Issue("uid-1", "", -time.Minute)
	noSubject, _ := verifier.Issue("", "", time.Hour)

	for name, token := range map[string]string{
		"wrong secret": fromOther,
		"wrong issuer": fromForeign,
		"expired":      expired,
		"no subject":   noSubject,
		"garbage":      "abc",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidCredential)
		})
	}

	_, err = verifier.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingCredential)
}

func TestNewHMACVerifier_ShortSecret(t *testing.T) {
	_, err := NewHMACVerifier([]byte("short"), "")
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":      "abc",
		"bearer abc":      "abc",
		"  Bearer  abc  ": "abc",
		"Basic abc":       "",
		"Bearer":          "",
		"":                "",
		"abc":             "",
	}
	for header, want := range tests {
		assert.Equal(t, want, BearerToken(header), "header %q", header)
	}
}

func TestAuthContext(t *testing.T) {
	var nilCtx *AuthContext
	assert.False(t, nilCtx.Authenticated())
	assert.Empty(t, nilCtx.SubjectID())

	anon := &AuthContext{}
	assert.False(t, anon.Authenticated())

	authed := &AuthContext{Principal: &Principal{SubjectID: "u1"}}
	assert.True(t, authed.Authenticated())
	assert.Equal(t, "u1", authed.SubjectID())
}

func TestVerifierFunc(t *testing.T) {
	var v Verifier = VerifierFunc(func(_ context.Context, raw string) (*Principal, error) {
		return &Principal{SubjectID: raw}, nil
	})
	p, err := v.Verify(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", p.SubjectID)
}
