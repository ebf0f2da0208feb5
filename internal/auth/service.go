package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/visitgate/visitgate/internal/visitgate/store"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password; callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// Service performs staff login.
type Service struct {
	staff  store.StaffStore
	tokens *TokenManager
}

func NewService(staff store.StaffStore, tokens *TokenManager) *Service {
	return &Service{staff: staff, tokens: tokens}
}

// Login checks the password against the stored bcrypt hash and mints a
// session token, returning the token and its expiry.
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", time.Time{}, ErrInvalidCredentials
	}

	staff, err := s.staff.GetStaffByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)) != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	return s.tokens.Mint(staff)
}

// HashPassword returns the bcrypt hash stored for a staff password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
