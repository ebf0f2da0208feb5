// Package auth authenticates staff: password login against the staff
// store and HMAC-signed session tokens carrying the identity, role and
// department that the hub uses for group membership.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/visitgate/visitgate/internal/visitgate/store"
)

var (
	// ErrInvalidToken is returned for tokens that fail signature,
	// structure or expiry checks.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Claims is the token payload for a staff session.
type Claims struct {
	jwt.RegisteredClaims
	Name         string `json:"name,omitempty"`
	Role         string `json:"role,omitempty"`
	DepartmentID string `json:"department_id,omitempty"`
}

// TokenManager mints and parses staff session tokens (HS256).
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret []byte, ttl time.Duration) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("auth: token secret must not be empty")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenManager{
		secret: secret,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Mint returns a signed token for the staff member and its expiry.
func (m *TokenManager) Mint(staff store.StaffRecord) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   staff.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Name:         staff.Name,
		Role:         staff.Role,
		DepartmentID: staff.DepartmentID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return token, expires, nil
}

// Parse verifies a token and returns its claims.
func (m *TokenManager) Parse(tokenString string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
