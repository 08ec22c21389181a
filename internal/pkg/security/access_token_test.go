package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "alice", time.Hour, testSecret)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := VerifyAccessToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "pixelforum", claims.Issuer)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt.Time))
}

func TestAccessTokenRejectsTampering(t *testing.T) {
	token, err := GenerateAccessToken(42, "alice", time.Hour, testSecret)
	require.NoError(t, err)

	_, err = VerifyAccessToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrTokenSignature)

	// claims of another user carrying the original signature
	forged, err := GenerateAccessToken(1, "admin", time.Hour, "attacker")
	require.NoError(t, err)
	forgedParts := strings.Split(forged, ".")
	sig := strings.Split(token, ".")[2]
	_, err = VerifyAccessToken(forgedParts[0]+"."+forgedParts[1]+"."+sig, testSecret)
	assert.ErrorIs(t, err, ErrTokenSignature)
}

func TestAccessTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := AccessTokenClaims{
		UserID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "pixelforum",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = VerifyAccessToken(hs512, testSecret)
	assert.ErrorIs(t, err, ErrTokenSignature)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = VerifyAccessToken(unsigned, testSecret)
	assert.Error(t, err)
}

func TestAccessTokenRequiresIssuerAndExpiry(t *testing.T) {
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
		UserID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = VerifyAccessToken(foreign, testSecret)
	assert.ErrorIs(t, err, ErrTokenMalformed)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
		UserID:           42,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "pixelforum"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = VerifyAccessToken(noExpiry, testSecret)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestAccessTokenMalformed(t *testing.T) {
	for _, token := range []string{"", "abc", "!!!.###", "e30.e30", "a.b.c"} {
		_, err := VerifyAccessToken(token, testSecret)
		assert.ErrorIs(t, err, ErrTokenMalformed, token)
	}
}

func TestAccessTokenWithoutUserIsMalformed(t *testing.T) {
	token, err := GenerateAccessToken(0, "ghost", time.Hour, testSecret)
	require.NoError(t, err)

	_, err = VerifyAccessToken(token, testSecret)
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken(42, "alice", -time.Minute, testSecret)
	require.NoError(t, err)

	_, err = VerifyAccessToken(token, testSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAccessTokenRequiresSecret(t *testing.T) {
	_, err := GenerateAccessToken(1, "a", time.Hour, "")
	assert.Error(t, err)

	_, err = VerifyAccessToken("a.b.c", "")
	assert.Error(t, err)
}
