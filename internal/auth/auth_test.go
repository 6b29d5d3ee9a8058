package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	h, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.False(t, NeedsRehash(h))
	assert.True(t, CheckPassword(h, "s3cret-pass"))
	assert.False(t, CheckPassword(h, "wrong"))
}

func TestLegacyHash(t *testing.T) {
	h := LegacyHash("admin123")
	assert.Equal(t, "240be518fabd2724ddb6f04eeb1da5967448d7e831c08c8fa822809f74c720a9", h)
	assert.True(t, NeedsRehash(h))
	assert.True(t, CheckPassword(h, "admin123"))
	assert.False(t, CheckPassword(h, "admin124"))
	assert.False(t, NeedsRehash("not-hex"))
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := MakeToken("USR_1", "doctor", "secret")
	require.NoError(t, err)

	c, err := ParseToken(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "USR_1", c.UserID)
	assert.Equal(t, "doctor", c.Role)

	_, err = ParseToken(tok, "other-secret")
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	c := Claims{
		UserID: "USR_1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ParseToken(tok, "secret")
	assert.Error(t, err)
}

func TestRejectsNoneAlg(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "USR_1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(tok, "secret")
	assert.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	raw, hash, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.Len(t, raw, 64)
	assert.Equal(t, hash, HashRefreshToken(raw))

	raw2, _, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw2)
}

func TestHasRole(t *testing.T) {
	assert.True(t, HasRole("admin"))
	assert.True(t, HasRole("nurse", "doctor", "nurse"))
	assert.False(t, HasRole("staff", "doctor", "nurse"))
	assert.False(t, HasRole("", "doctor"))
}
