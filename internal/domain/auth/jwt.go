// Package auth validates and mints the bearer tokens that carry the caller's
// organization and role.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appctx "medstore/internal/core/context"
	"medstore/internal/core/id"
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Claims are the medstore token claims.
type Claims struct {
	jwt.RegisteredClaims
	OrganizationID string `json:"org"`
	Role           string `json:"role"`
}

var knownRoles = map[string]bool{
	appctx.RoleAdmin:      true,
	appctx.RoleManager:    true,
	appctx.RolePharmacist: true,
	appctx.RoleCashier:    true,
}

// JWTService signs and validates HS256 tokens.
type JWTService struct {
	config JWTConfig
	now    func() time.Time
}

// NewJWTService creates a new JWT service.
func NewJWTService(config JWTConfig) *JWTService {
	if config.TTL <= 0 {
		config.TTL = 12 * time.Hour
	}
	return &JWTService{config: config, now: time.Now}
}

// Issue mints a token for userID acting in orgID with role.
func (s *JWTService) Issue(userID string, orgID id.ID, role string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, errors.New("user id is required")
	}
	if !knownRoles[role] {
		return "", time.Time{}, fmt.Errorf("unknown role %q", role)
	}

	now := s.now()
	expiresAt := now.Add(s.config.TTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        id.New().String(),
		},
		OrganizationID: orgID.String(),
		Role:           role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken validates a token and returns the caller it names.
func (s *JWTService) ValidateToken(tokenString string) (*appctx.UserContext, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	if _, err := id.Parse(claims.OrganizationID); err != nil {
		return nil, fmt.Errorf("token organization: %w", err)
	}
	if !knownRoles[claims.Role] {
		return nil, fmt.Errorf("token role %q is not known", claims.Role)
	}

	return &appctx.UserContext{
		UserID:         claims.Subject,
		OrganizationID: claims.OrganizationID,
		Role:           claims.Role,
		SessionID:      claims.ID,
	}, nil
}
