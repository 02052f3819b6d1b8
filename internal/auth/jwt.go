// Package auth issues and validates the learner tokens that guard session
// connections.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "kairos"

// ErrInvalidToken is returned when a JWT cannot be parsed, has expired or
// names no learner.
var ErrInvalidToken = errors.New("auth: invalid or expired token") //nolint:gochecknoglobals // sentinel error

// Claims holds the token payload. The learner is the subject.
type Claims struct {
	jwt.RegisteredClaims
}

func (c *Claims) Learner() string { return c.Subject }

// IssueLearnerToken creates a signed HS256 token for learner.
func IssueLearnerToken(secret, learner string, ttl time.Duration) (string, error) {
	if learner == "" {
		return "", errors.New("auth.IssueLearnerToken: empty learner")
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   learner,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.IssueLearnerToken: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates a token string. Returns the embedded claims.
func ValidateToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	return claims, nil
}
