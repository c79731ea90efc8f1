package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTIssuer_Issue(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)

	token, err := issuer.Issue("user-123", "u@example.com", []string{"admin"}, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := jwt.ParseWithClaims(token, &actorClaims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(*actorClaims)
	require.True(t, ok)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, tokenIssuer, claims.Issuer)
	assert.Equal(t, "u@example.com", claims.Email)
	assert.Equal(t, []string{"admin"}, claims.Roles)
}

func TestJWTVerifier_Verify(t *testing.T) {
	secret := "test-secret"
	issuer := NewJWTIssuer(secret)
	verifier := NewJWTVerifier(secret)

	t.Run("valid token", func(t *testing.T) {
		token, err := issuer.Issue("user-1", "a@example.com", []string{"admin"}, time.Hour)
		require.NoError(t, err)

		actor, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "user-1", actor.UserID)
		assert.Equal(t, "a@example.com", actor.Email)
		assert.True(t, actor.IsAdmin())
	})

	t.Run("within clock skew", func(t *testing.T) {
		token, err := issuer.Issue("user-1", "", nil, -2*time.Second)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		require.NoError(t, err)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		s, err := token.SignedString([]byte(secret))
		require.NoError(t, err)
		_, err = verifier.Verify(s)
		require.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := issuer.Issue("", "", nil, time.Hour)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		require.ErrorContains(t, err, "missing subject")
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := issuer.Issue("user-1", "", nil, -time.Minute)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewJWTIssuer("other").Issue("user-1", "", nil, time.Hour)
		require.NoError(t, err)
		_, err = verifier.Verify(token)
		require.Error(t, err)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		})
		s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = verifier.Verify(s)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.Verify("not-a-token")
		require.Error(t, err)
	})
}
