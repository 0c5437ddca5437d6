package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/teacher-ratings-api/internal/models"
	"github.com/noah-isme/teacher-ratings-api/pkg/config"
	appErrors "github.com/noah-isme/teacher-ratings-api/pkg/errors"
)

func TestStaticAuthenticatorLogin(t *testing.T) {
	svc := NewAuthService(NewStaticAuthenticator("admin", "password123", "admin-token"), nil, zap.NewNop())
	ctx := context.Background()

	res, err := svc.Login(ctx, models.LoginRequest{Username: "admin", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "admin-token", res.Token)
	assert.Nil(t, res.ExpiresAt)

	for _, req := range []models.LoginRequest{
		{Username: "admin", Password: "wrong"},
		{Username: "root", Password: "password123"},
		{Username: "", Password: ""},
	} {
		_, err := svc.Login(ctx, req)
		require.Error(t, err)
		assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
		assert.Equal(t, "Invalid credentials", appErrors.FromError(err).Message)
	}
}

func TestStaticAuthenticatorValidateToken(t *testing.T) {
	auth := NewStaticAuthenticator("admin", "password123", "admin-token")
	ctx := context.Background()

	claims, err := auth.ValidateToken(ctx, "admin-token")
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)

	_, err = auth.ValidateToken(ctx, "admin-token2")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
	_, err = auth.ValidateToken(ctx, "")
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestJWTAuthenticatorRoundTrip(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := NewJWTAuthenticator("admin", string(hash), JWTConfig{Secret: "secret", Expiration: time.Hour, Issuer: "test"})
	svc := NewAuthService(auth, nil, zap.NewNop())
	ctx := context.Background()

	res, err := svc.Login(ctx, models.LoginRequest{Username: "admin", Password: "s3cret"})
	require.NoError(t, err)
	require.NotNil(t, res.ExpiresAt)

	claims, err := auth.ValidateToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "test", claims.Issuer)

	_, err = svc.Login(ctx, models.LoginRequest{Username: "admin", Password: "nope"})
	assert.True(t, appErrors.Is(err, appErrors.ErrInvalidCredentials))
}

func TestJWTAuthenticatorRejectsBadTokens(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	auth := NewJWTAuthenticator("admin", string(hash), JWTConfig{Secret: "secret", Expiration: time.Hour})
	ctx := context.Background()

	other := NewJWTAuthenticator("admin", string(hash), JWTConfig{Secret: "other", Expiration: time.Hour})
	forged, _, err := other.IssueToken(ctx, "admin")
	require.NoError(t, err)
	_, err = auth.ValidateToken(ctx, forged)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	auth.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := auth.IssueToken(ctx, "admin")
	require.NoError(t, err)
	auth.now = time.Now
	_, err = auth.ValidateToken(ctx, expired)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &models.AdminClaims{Username: "admin"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.ValidateToken(ctx, unsigned)
	assert.True(t, appErrors.Is(err, appErrors.ErrUnauthorized))
}

func TestNewAuthenticatorModes(t *testing.T) {
	static, err := NewAuthenticator(config.AdminConfig{AuthMode: config.AuthModeStatic, Username: "a", Password: "b", Token: "t"}, config.JWTConfig{})
	require.NoError(t, err)
	assert.IsType(t, &StaticAuthenticator{}, static)

	signed, err := NewAuthenticator(config.AdminConfig{AuthMode: config.AuthModeJWT, Username: "a", Password: "b"}, config.JWTConfig{Secret: "s"})
	require.NoError(t, err)
	require.IsType(t, &JWTAuthenticator{}, signed)
	assert.NoError(t, signed.ValidateCredentials(context.Background(), "a", "b"))

	_, err = NewAuthenticator(config.AdminConfig{AuthMode: "ldap"}, config.JWTConfig{})
	assert.Error(t, err)
}
