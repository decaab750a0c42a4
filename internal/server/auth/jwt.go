// Package auth issues and checks admin session tokens and password hashes.
package auth

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/memorial/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "memorial"

// Claims carries the admin user name next to the registered claims.
type Claims struct {
	jwt.RegisteredClaims
	AdminUser string `json:"adm"`
}

func GenerateToken(adminUser string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		AdminUser: adminUser,
	})
	return token.SignedString(secretKey)
}

// GetAdminFromToken returns the admin user of a valid token. Any parse,
// signature or expiry failure is reported as common.ErrInvalidToken.
func GetAdminFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.AdminUser == "" {
		return "", common.ErrInvalidToken
	}
	return claims.AdminUser, nil
}
