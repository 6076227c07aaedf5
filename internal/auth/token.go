package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload of an admin session token.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 admin tokens. Revocations is
// consulted by the middleware; nil means logout is not possible.
type TokenManager struct {
	Revocations RevocationList
	secret      []byte
	ttl         time.Duration
	now         func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *TokenManager) TTL() time.Duration { return m.ttl }

func (m *TokenManager) Issue(adminID, email string) (string, error) {
	now := m.now()
	claims := Claims{
		ID:    adminID,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   adminID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (m *TokenManager) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, errors.New("empty token")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.ID == "" {
		return nil, errors.New("id claim not found in token")
	}
	return claims, nil
}

// Revoke marks the token behind c as logged out until it expires.
func (m *TokenManager) Revoke(ctx context.Context, c *Claims) error {
	if m.Revocations == nil {
		return errors.New("token revocation is not configured")
	}
	if c.RegisteredClaims.ID == "" {
		return errors.New("token has no jti claim")
	}
	return m.Revocations.Revoke(ctx, c.RegisteredClaims.ID, c.ExpiresAt.Time)
}

// IsRevoked reports false for tokens issued without a jti.
func (m *TokenManager) IsRevoked(ctx context.Context, c *Claims) (bool, error) {
	if m.Revocations == nil || c.RegisteredClaims.ID == "" {
		return false, nil
	}
	return m.Revocations.IsRevoked(ctx, c.RegisteredClaims.ID)
}

// ExtractTokenFromRequest extracts a JWT token from an HTTP request's Authorization header
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}

	// Bearer token format: "Bearer {token}"
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}

	return parts[1], nil
}
