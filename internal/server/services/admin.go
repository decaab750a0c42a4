package services

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/dmitrijs2005/memorial/internal/common"
	"github.com/dmitrijs2005/memorial/internal/logging"
	"github.com/dmitrijs2005/memorial/internal/server/auth"
)

// AdminService gates the moderation surface. Only whether a session is
// valid is checked; there are no roles.
type AdminService struct {
	user         string
	passwordHash string
	jwtSecret    []byte
	tokenTTL     time.Duration
	logger       logging.Logger
}

func NewAdminService(user, passwordHash string, secretKey []byte, tokenTTL time.Duration, logger logging.Logger) *AdminService {
	return &AdminService{
		user:         user,
		passwordHash: passwordHash,
		jwtSecret:    secretKey,
		tokenTTL:     tokenTTL,
		logger:       logger.With("module", "admin"),
	}
}

// Login checks the credentials and returns a signed session token.
func (s *AdminService) Login(ctx context.Context, user, password string) (string, error) {
	if err := auth.CheckCredentials(user, password, s.user, s.passwordHash); err != nil {
		s.logger.Warn(ctx, "admin login refused", "user", user)
		return "", err
	}
	return auth.GenerateToken(s.user, s.jwtSecret, s.tokenTTL)
}

// Verify returns the admin user of a valid session token. With no password
// hash configured there is no admin, so every token is refused. A token
// naming any other user is refused too.
func (s *AdminService) Verify(token string) (string, error) {
	if s.passwordHash == "" {
		return "", common.ErrUnauthorized
	}
	user, err := auth.GetAdminFromToken(token, s.jwtSecret)
	if err != nil {
		return "", err
	}
	if subtle.ConstantTimeCompare([]byte(user), []byte(s.user)) != 1 {
		return "", common.ErrInvalidToken
	}
	return user, nil
}
