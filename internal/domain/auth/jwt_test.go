package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "medstore/internal/core/context"
	"medstore/internal/core/id"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndValidate(t *testing.T) {
	svc := NewJWTService(JWTConfig{Secret: testSecret, Issuer: "medstore", TTL: time.Hour})
	orgID := id.New()

	token, expiresAt, err := svc.Issue("u-1", orgID, appctx.RoleManager)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	user, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.UserID)
	assert.Equal(t, orgID.String(), user.OrganizationID)
	assert.Equal(t, appctx.RoleManager, user.Role)
	assert.NotEmpty(t, user.SessionID)
}

func TestValidateRejects(t *testing.T) {
	svc := NewJWTService(JWTConfig{Secret: testSecret, Issuer: "medstore", TTL: time.Hour})
	good, _, err := svc.Issue("u-1", id.New(), appctx.RoleAdmin)
	require.NoError(t, err)

	otherIssuer := NewJWTService(JWTConfig{Secret: testSecret, Issuer: "other", TTL: time.Hour})
	foreign, _, err := otherIssuer.Issue("u-1", id.New(), appctx.RoleAdmin)
	require.NoError(t, err)

	expiredSvc := NewJWTService(JWTConfig{Secret: testSecret, Issuer: "medstore", TTL: time.Minute})
	expiredSvc.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _, err := expiredSvc.Issue("u-1", id.New(), appctx.RoleAdmin)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", Issuer: "medstore", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		OrganizationID:   id.New().String(),
		Role:             appctx.RoleAdmin,
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badOrg, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", Issuer: "medstore", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		OrganizationID:   "not-a-uuid",
		Role:             appctx.RoleAdmin,
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"tampered", good + "x"},
		{"wrong secret", mustSign(t, "another-secret-another-secret-xx")},
		{"wrong issuer", foreign},
		{"expired", expired},
		{"alg none", noneAlg},
		{"bad organization", badOrg},
		{"garbage", "abc.def.ghi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestIssueRejectsUnknownRole(t *testing.T) {
	svc := NewJWTService(JWTConfig{Secret: testSecret})
	_, _, err := svc.Issue("u-1", id.New(), "superuser")
	assert.Error(t, err)

	_, _, err = svc.Issue("", id.New(), appctx.RoleAdmin)
	assert.Error(t, err)
}

func mustSign(t *testing.T, secret string) string {
	t.Helper()
	token, _, err := NewJWTService(JWTConfig{Secret: secret, Issuer: "medstore"}).Issue("u-1", id.New(), appctx.RoleCashier)
	require.NoError(t, err)
	return token
}
