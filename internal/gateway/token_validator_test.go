package gateway

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurolife88/amo-china/pkg/access"
	"github.com/neurolife88/amo-china/pkg/types"
)

// Fixed user IDs matching the UUID shape the session provider issues.
const (
	testCoordinatorID = "5b3f2b9e-8f0a-4f4e-9c3b-2a1d7e6f5a10"
	testDirectorID    = "c41d8a7f-2e6b-4b0d-9f1a-8c3e5d7b9a21"
	testAdminID       = "9d2e4c51-7b3a-4e8f-b6c0-1f2a3d4e5b6c"
)

func TestTokenValidator_ValidateJWT(t *testing.T) {
	secret := "test-secret"
	validator := NewTokenValidator(secret, "amo-china-dashboard")

	claims := &JWTClaims{
		UserID:     testCoordinatorID,
		Email:      "coordinator@boya.cn",
		Role:       "coordinator",
		ClinicName: "Boya",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "amo-china-dashboard",
			Subject:   testCoordinatorID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	userClaims, err := validator.ValidateJWT(tokenString)
	require.NoError(t, err)

	assert.Equal(t, testCoordinatorID, userClaims.UserID)
	assert.Equal(t, "coordinator@boya.cn", userClaims.Email)
	assert.Equal(t, access.RoleCoordinator, userClaims.Role)
	assert.Equal(t, "Boya", userClaims.ClinicName)

	t.Run("claims map onto an evaluator context", func(t *testing.T) {
		userCtx := userClaims.UserContext()
		assert.Equal(t, access.RoleCoordinator, userCtx.Role)
		assert.Equal(t, "Boya", userCtx.Clinic)
		assert.Equal(t, testCoordinatorID, userCtx.UserID)
	})
}

func TestTokenValidator_ValidateJWT_InvalidToken(t *testing.T) {
	validator := NewTokenValidator("test-secret", "amo-china-dashboard")

	_, err := validator.ValidateJWT("invalid-token")
	assert.Error(t, err)
}

func TestTokenValidator_ValidateJWT_WrongSecret(t *testing.T) {
	validator := NewTokenValidator("test-secret", "amo-china-dashboard")
	other := NewTokenValidator("other-secret", "amo-china-dashboard")

	tokenString, err := other.GenerateToken(&types.UserClaims{
		UserID: testDirectorID,
		Role:   access.RoleDirector,
	}, time.Hour)
	require.NoError(t, err)

	_, err = validator.ValidateJWT(tokenString)
	assert.Error(t, err)
}

func TestTokenValidator_ValidateJWT_Expired(t *testing.T) {
	validator := NewTokenValidator("test-secret", "amo-china-dashboard")

	tokenString, err := validator.GenerateToken(&types.UserClaims{
		UserID: testDirectorID,
		Role:   access.RoleDirector,
	}, -time.Hour)
	require.NoError(t, err)

	_, err = validator.ValidateJWT(tokenString)
	assert.Error(t, err)
}

func TestTokenValidator_GenerateRoundTrip(t *testing.T) {
	validator := NewTokenValidator("test-secret", "amo-china-dashboard")

	in := &types.UserClaims{
		UserID:     testAdminID,
		Email:      "admin@dashboard.cn",
		Role:       access.RoleSuperAdmin,
		ClinicName: "",
	}

	tokenString, err := validator.GenerateToken(in, time.Hour)
	require.NoError(t, err)

	out, err := validator.ValidateJWT(tokenString)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestTokenValidator_ValidateJWT_NonUUIDSubject(t *testing.T) {
	secret := "test-secret"
	validator := NewTokenValidator(secret, "amo-china-dashboard")

	claims := &JWTClaims{
		UserID: "not-a-uuid",
		Role:   "coordinator",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "amo-china-dashboard",
			Subject:   "not-a-uuid",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = validator.ValidateJWT(tokenString)
	require.Error(t, err)

	dashErr, ok := err.(*types.DashboardError)
	require.True(t, ok)
	assert.Equal(t, types.ErrorTypeAuthentication, dashErr.Type)
	assert.Equal(t, types.ErrCodeAuthenticationFailed, dashErr.Code)
}
