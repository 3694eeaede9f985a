// Package auth verifies the bearer tokens issued by the external identity
// provider and turns them into an Identity.
//
// TOKEN FLOW:
//  1. The browser signs in with the identity provider and receives a JWT
//  2. Every API call carries it as "Authorization: Bearer <jwt>"
//  3. RequireAuth verifies the token and stores the caller's Identity in the
//     request context
//  4. Handlers read it back with IdentityFromContext
//
// The service never stores credentials. The "sub" claim is the stable,
// opaque subject that keys a user document; "email" and "name" are profile
// claims copied onto the document.
//
// JWT STRUCTURE (three base64-encoded parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: algorithm + token type → {"alg":"HS256","typ":"JWT"}
//	- Payload: claims → {"sub":"user_2abc","email":"a@b.c","exp":1234567890}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the verified caller of a request.
type Identity struct {
	Subject     string `json:"subject"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"name,omitempty"`
}

// TokenService issues and verifies HS256 tokens.
//
// The same secret must be configured here and at the identity provider.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a TokenService with the given secret.
// When issuer is non-empty, Verify rejects tokens from any other issuer and
// Issue stamps it on new tokens.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), issuer: issuer}, nil
}

// claims is the JWT payload: the registered claims plus the profile claims
// the identity provider adds.
type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Issue signs a token for id that expires after ttl.
// Used by the CLI to mint development tokens and by tests.
func (s *TokenService) Issue(id Identity, ttl time.Duration) (string, error) {
	if id.Subject == "" {
		return "", errors.New("auth: subject is required")
	}

	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    s.issuer,
		},
		Email: id.Email,
		Name:  id.DisplayName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and verifies a JWT string and returns the caller's Identity.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid
//   - Token carries an expiry and it is in the future
//   - Issuer matches, when one is configured
//   - Algorithm is HS256 (prevents "alg: none" confusion attacks)
func (s *TokenService) Verify(tokenStr string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		opts...,
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("auth: token expired")
		}
		return Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Identity{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Identity{}, fmt.Errorf("auth: token has no subject")
	}

	return Identity{
		Subject:     c.Subject,
		Email:       c.Email,
		DisplayName: c.Name,
	}, nil
}
