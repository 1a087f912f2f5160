package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenIssuer_RoundTripRestaurant(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	issuer, err := NewTokenIssuer("secret", WithTTL(time.Hour), WithClock(fixedClock(now)), WithIssuer("onboarding"))
	require.NoError(t, err)

	token, expiresAt, err := issuer.IssueRestaurant(42)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, RoleRestaurant, claims.Role)
	id, err := claims.RestaurantID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	clock := now
	issuer, err := NewTokenIssuer("secret", WithTTL(time.Minute), WithClock(func() time.Time { return clock }))
	require.NoError(t, err)
	token, _, err := issuer.IssueAdmin("ops")
	require.NoError(t, err)

	clock = now.Add(2 * time.Minute)
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsForeignSecret(t *testing.T) {
	a, err := NewTokenIssuer("secret-a")
	require.NoError(t, err)
	b, err := NewTokenIssuer("secret-b")
	require.NoError(t, err)
	token, _, err := a.IssueAdmin("ops")
	require.NoError(t, err)

	_, err = b.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenIssuer_RejectsUnsignedToken(t *testing.T) {
	issuer, err := NewTokenIssuer("secret")
	require.NoError(t, err)
	claims := &Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = issuer.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaims_RestaurantIDRequiresRestaurantRole(t *testing.T) {
	claims := &Claims{Role: RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Subject: "7"}}
	_, err := claims.RestaurantID()
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("  ")
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestBearerToken(t *testing.T) {
	token, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)

	token, ok = BearerToken("bearer  xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", token)

	_, ok = BearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
}

func TestAdminAuthenticator(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	admin, err := NewAdminAuthenticator("ops", string(hash))
	require.NoError(t, err)

	assert.NoError(t, admin.Authenticate("ops", "s3cret-pass"))
	assert.ErrorIs(t, admin.Authenticate("ops", "wrong"), ErrInvalidAdminCredentials)
	assert.ErrorIs(t, admin.Authenticate("other", "s3cret-pass"), ErrInvalidAdminCredentials)
}

func TestAdminAuthenticator_Disabled(t *testing.T) {
	_, err := NewAdminAuthenticator("ops", "")
	assert.ErrorIs(t, err, ErrAdminLoginDisabled)

	_, err = NewAdminAuthenticator("ops", "not-a-bcrypt-hash")
	assert.Error(t, err)

	var admin *AdminAuthenticator
	assert.ErrorIs(t, admin.Authenticate("ops", "x"), ErrAdminLoginDisabled)
}
