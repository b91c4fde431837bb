package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

// ErrNoSecret is returned when a verifier was built without a signing key.
var ErrNoSecret = errors.New("JWT secret not configured")

// Claims is the subset of the access token the backend relies on.
// The user ID travels in the standard "sub" claim.
type Claims struct {
	Role string `json:"role"`
	Type string `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HMAC-signed access tokens.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	if secret == "" {
		return &TokenVerifier{}
	}
	return &TokenVerifier{secret: []byte(secret)}
}

// ParseAndValidateToken parses tokenStr and returns its claims.
// If expectedType is non-empty, the "typ" claim must match it.
func (v *TokenVerifier) ParseAndValidateToken(tokenStr, expectedType string) (*Claims, error) {
	if v == nil || v.secret == nil {
		return nil, ErrNoSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}
	if expectedType != "" && claims.Type != expectedType {
		return nil, fmt.Errorf("invalid token type")
	}
	return claims, nil
}

// Sign issues a token for the given claims. Used by tooling and tests.
func (v *TokenVerifier) Sign(claims *Claims) (string, error) {
	if v == nil || v.secret == nil {
		return "", ErrNoSecret
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
