package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator(t *testing.T) {
	v, err := NewValidator(Config{Secret: "test-secret", Issuer: "approvenow-auth", Audience: "approvenow"})
	require.NoError(t, err)
	userID := uuid.New()

	t.Run("round_trip", func(t *testing.T) {
		token, err := v.Issue(userID, "ada@example.com", "Ada", time.Minute)
		require.NoError(t, err)

		claims, err := v.ValidateAccessToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "ada@example.com", claims.Email)
		assert.Equal(t, "Ada", claims.Name)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := v.Issue(userID, "ada@example.com", "", -time.Minute)
		require.NoError(t, err)

		_, err = v.ValidateAccessToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong_secret", func(t *testing.T) {
		other, err := NewValidator(Config{Secret: "other", Issuer: "approvenow-auth", Audience: "approvenow"})
		require.NoError(t, err)
		token, err := other.Issue(userID, "ada@example.com", "", time.Minute)
		require.NoError(t, err)

		_, err = v.ValidateAccessToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("wrong_issuer", func(t *testing.T) {
		other, err := NewValidator(Config{Secret: "test-secret", Issuer: "someone-else", Audience: "approvenow"})
		require.NoError(t, err)
		token, err := other.Issue(userID, "ada@example.com", "", time.Minute)
		require.NoError(t, err)

		_, err = v.ValidateAccessToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	})

	t.Run("subject_must_be_uuid", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "not-a-uuid",
			"iss": "approvenow-auth",
			"aud": "approvenow",
			"exp": time.Now().Add(time.Minute).Unix(),
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = v.ValidateAccessToken(token)
		assert.Error(t, err)
	})

	t.Run("secret_required", func(t *testing.T) {
		_, err := NewValidator(Config{})
		assert.Error(t, err)
	})
}
