package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are the fields of an identity-provider ID token the device cares about.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// ParseIDToken decodes the claims of tokenString without verifying its signature.
// The identity provider and the database verify tokens; the device only reads them.
func ParseIDToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	return claims, nil
}

// ExpiresAt returns the token's exp claim. ok is false when the token cannot be
// parsed or carries no expiry.
func ExpiresAt(tokenString string) (time.Time, bool) {
	claims, err := ParseIDToken(tokenString)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
