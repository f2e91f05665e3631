package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3nha-forte")
	require.NoError(t, err)
	assert.NotEqual(t, "s3nha-forte", hash)
	assert.True(t, CheckPassword(hash, "s3nha-forte"))
	assert.False(t, CheckPassword(hash, "errada"))
}

func TestTokenRoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer("segredo", time.Minute)
	require.NoError(t, err)

	token, err := issuer.Issue("ana@example.com")
	require.NoError(t, err)
	email, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", email)
}

func TestTokenExpires(t *testing.T) {
	issuer, err := NewTokenIssuer("segredo", 30*time.Minute)
	require.NoError(t, err)
	start := time.Now()
	issuer.now = func() time.Time { return start }
	token, err := issuer.Issue("ana@example.com")
	require.NoError(t, err)

	issuer.now = func() time.Time { return start.Add(31 * time.Minute) }
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectsOtherSecretAndAlgorithm(t *testing.T) {
	issuer, err := NewTokenIssuer("segredo", time.Minute)
	require.NoError(t, err)
	other, err := NewTokenIssuer("outro", time.Minute)
	require.NoError(t, err)

	token, err := other.Issue("ana@example.com")
	require.NoError(t, err)
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "ana@example.com"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse("lixo")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenIssuerRequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer(" ", time.Minute)
	assert.Error(t, err)
}
