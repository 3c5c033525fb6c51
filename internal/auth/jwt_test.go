package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollenpaw/pollenpaw/internal/auth"
)

func newService(key, issuer, audience string) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: key,
		Issuer:     issuer,
		Audience:   audience,
	})
}

func TestJWTService_GenerateAndValidateAccessToken(t *testing.T) {
	svc := newService("test-secret-key-for-testing-only", "https://api.pollenpaw.app", "pollenpaw-api")

	token, expiresAt, err := svc.GenerateAccessToken("usr_test123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "usr_test123", claims.OwnerID())
	assert.Equal(t, "usr_test123", claims.Subject)
	assert.Equal(t, "https://api.pollenpaw.app", claims.Issuer)
}

func TestJWTService_InvalidToken(t *testing.T) {
	svc := newService("test-secret-key-for-testing-only", "https://api.pollenpaw.app", "pollenpaw-api")

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"malformed token", "not.a.valid.jwt"},
		{"invalid base64", "xxx.yyy.zzz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_Mismatch(t *testing.T) {
	issuer := newService("key-one", "https://api.pollenpaw.app", "pollenpaw-api")
	token, _, err := issuer.GenerateAccessToken("usr_test123")
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier *auth.JWTService
	}{
		{"wrong signing key", newService("key-two", "https://api.pollenpaw.app", "pollenpaw-api")},
		{"wrong issuer", newService("key-one", "issuer-two", "pollenpaw-api")},
		{"wrong audience", newService("key-one", "https://api.pollenpaw.app", "audience-two")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verifier.ValidateAccessToken(token)
			assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
		})
	}
}

func TestJWTService_Expired(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC))
	svc := auth.NewJWTService(auth.JWTConfig{SigningKey: "k", Clock: clock})

	token, _, err := svc.GenerateAccessToken("usr_test123")
	require.NoError(t, err)

	clock.Advance(auth.AccessTokenExpiry + time.Minute)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrAccessTokenExpired)
}

func TestJWTService_SubjectOnly(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "usr_from_sub",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	parsed, err := auth.NewJWTService(auth.JWTConfig{SigningKey: "k"}).ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "usr_from_sub", parsed.OwnerID())
}

func TestJWTService_MissingSubject(t *testing.T) {
	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = auth.NewJWTService(auth.JWTConfig{SigningKey: "k"}).ValidateAccessToken(token)
	assert.ErrorIs(t, err, auth.ErrMissingSubject)
}
