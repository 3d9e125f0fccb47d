package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carried by the access token. OrganizationID scopes every
// tenant-bound query; IsAdmin gates the admin-only routes.
type Claims struct {
	UserID         uint `json:"userId"`
	OrganizationID uint `json:"organizationId"`
	IsAdmin        bool `json:"isAdmin"`
	jwt.RegisteredClaims
}

const AccessTTL = 24 * time.Hour

func jwtSecret() ([]byte, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET not set")
	}
	return []byte(secret), nil
}

// GenerateAccessToken issues an HS256 JWT valid for AccessTTL.
func GenerateAccessToken(userID, organizationID uint, isAdmin bool) (string, error) {
	secret, err := jwtSecret()
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := &Claims{
		UserID:         userID,
		OrganizationID: organizationID,
		IsAdmin:        isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseAndValidate checks signature and expiry and returns the claims.
func ParseAndValidate(tokenStr string) (*Claims, error) {
	secret, err := jwtSecret()
	if err != nil {
		return nil, err
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("could not extract claims")
	}
	return claims, nil
}
