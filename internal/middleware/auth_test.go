package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperlens/core/internal/pkg/jwt"
)

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "abc", NormalizeToken("abc"))
	assert.Equal(t, "abc", NormalizeToken("  abc  "))
	assert.Equal(t, "abc", NormalizeToken("Bearer abc"))
	assert.Equal(t, "abc", NormalizeToken("bearer abc"))
	assert.Equal(t, "", NormalizeToken("   "))
}

func TestValidateTokenAccessToken(t *testing.T) {
	subject, err := ValidateToken("secret", "secret")
	require.NoError(t, err)
	assert.Equal(t, "access-token", subject)

	subject, err = ValidateToken("secret", "Bearer secret")
	require.NoError(t, err)
	assert.Equal(t, "access-token", subject)
}

func TestValidateTokenSessionJWT(t *testing.T) {
	signed, err := jwt.Sign("session", time.Minute)
	require.NoError(t, err)

	subject, err := ValidateToken("secret", signed)
	require.NoError(t, err)
	assert.Equal(t, "session", subject)
}

func TestValidateTokenRejects(t *testing.T) {
	_, err := ValidateToken("secret", "")
	assert.Error(t, err)

	_, err = ValidateToken("secret", "not-a-token")
	assert.Error(t, err)

	expired, err := jwt.Sign("session", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken("secret", expired)
	assert.Error(t, err)
}
