package utils

import (
	"errors"
	"time"

	"squadmatch/server/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims represents the identity provider's JWT claims
type Claims struct {
	UserID  string `json:"userId"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

// Identity converts the claims into the caller identity
func (c *Claims) Identity() models.Identity {
	return models.Identity{
		UserID:   c.UserID,
		Email:    c.Email,
		Name:     c.Name,
		PhotoURL: c.Picture,
	}
}

// GenerateToken signs a token for identity. Production tokens come from the
// identity provider; this is used by tests and local tooling.
func GenerateToken(secret []byte, identity models.Identity, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		UserID:  identity.UserID,
		Email:   identity.Email,
		Name:    identity.Name,
		Picture: identity.PhotoURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates and parses a JWT token
func ValidateToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user id")
	}

	return claims, nil
}
