package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	publicKeyDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	require.NoError(t, err)

	publicKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicKeyDER,
	})

	return privateKey, string(publicKeyPEM)
}

func signToken(t *testing.T, privateKey *rsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(privateKey)
	require.NoError(t, err)
	return signed
}

func TestAuthenticateJWT(t *testing.T) {
	privateKey, publicKeyPEM := generateKeyPair(t)
	cfg := AuthConfig{JWTPublicKey: publicKeyPEM}

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, privateKey, jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})

		result := Authenticate("Bearer "+token, cfg)
		require.True(t, result.Success)
		assert.Equal(t, "jwt", result.AuthType)
		assert.Equal(t, "u1", result.AuthSubject)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, privateKey, jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		})

		result := Authenticate("Bearer "+token, cfg)
		assert.False(t, result.Success)
		assert.Error(t, result.Error)
	})

	t.Run("token signed by another key", func(t *testing.T) {
		otherKey, _ := generateKeyPair(t)
		token := signToken(t, otherKey, jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})

		result := Authenticate("Bearer "+token, cfg)
		assert.False(t, result.Success)
	})

	t.Run("missing public key", func(t *testing.T) {
		token := signToken(t, privateKey, jwt.RegisteredClaims{Subject: "u1"})

		result := Authenticate("Bearer "+token, AuthConfig{})
		assert.False(t, result.Success)
	})
}

func TestAuthenticateAPIKey(t *testing.T) {
	cfg := AuthConfig{APIKeys: []string{"secret-key"}}

	t.Run("valid key", func(t *testing.T) {
		result := Authenticate("apikey secret-key", cfg)
		require.True(t, result.Success)
		assert.Equal(t, "apikey", result.AuthType)
		assert.Empty(t, result.AuthSubject)
	})

	t.Run("invalid key", func(t *testing.T) {
		result := Authenticate("apikey wrong", cfg)
		assert.False(t, result.Success)
	})

	t.Run("no keys configured", func(t *testing.T) {
		result := Authenticate("apikey secret-key", AuthConfig{})
		assert.False(t, result.Success)
	})
}

func TestAuthenticateHeaderFormats(t *testing.T) {
	cfg := AuthConfig{APIKeys: []string{"secret-key"}}

	tests := []struct {
		name   string
		header string
	}{
		{name: "empty header", header: ""},
		{name: "no credentials", header: "Bearer"},
		{name: "unsupported scheme", header: "Basic dXNlcjpwYXNz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Authenticate(tt.header, cfg)
			assert.False(t, result.Success)
			assert.Error(t, result.Error)
		})
	}
}
