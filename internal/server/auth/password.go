package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/memorial/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash suitable for the admin_password_hash
// setting.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: empty password", common.ErrValidation)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CheckCredentials compares a login attempt with the configured admin. An
// empty hash refuses every attempt.
func CheckCredentials(user, password, wantUser, wantHash string) error {
	if wantHash == "" {
		return common.ErrUnauthorized
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(wantUser)) == 1
	err := bcrypt.CompareHashAndPassword([]byte(wantHash), []byte(password))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}
	if !userOK || err != nil {
		return common.ErrUnauthorized
	}
	return nil
}
