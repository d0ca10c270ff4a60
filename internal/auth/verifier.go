// Package auth decides whether a session credential belongs to the site
// administrator.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/justjun/blog-api/internal/apperr"
)

// Identity is the verified subject of a session token
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
}

// SessionClaims are the claims carried by a session token
type SessionClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

func (c *SessionClaims) identity() *Identity {
	return &Identity{Subject: c.Subject, Email: c.Email, EmailVerified: c.EmailVerified}
}

// TokenVerifier checks a token's signature and validity claims
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*Identity, error)
}

var errEmptyToken = errors.New("no session token")

// Verifier is the session verifier: it accepts only tokens whose verified
// email is the configured administrator email.
type Verifier struct {
	tokens     TokenVerifier
	adminEmail string
}

// NewVerifier creates a session verifier for a single administrator
func NewVerifier(tokens TokenVerifier, adminEmail string) *Verifier {
	return &Verifier{tokens: tokens, adminEmail: adminEmail}
}

// Verify returns the administrator identity or an *apperr.AuthError.
// It performs no writes.
func (v *Verifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.NewAuth(apperr.Unauthenticated, errEmptyToken)
	}

	identity, err := v.tokens.VerifyToken(ctx, token)
	if err != nil {
		return nil, apperr.NewAuth(apperr.InvalidCredential, err)
	}

	if !IsAdmin(identity, v.adminEmail) {
		return nil, apperr.NewAuth(apperr.Forbidden, errors.New("email does not match administrator"))
	}

	return identity, nil
}

// IsAdmin reports whether identity carries the administrator email.
// Comparison ignores case and surrounding whitespace.
func IsAdmin(identity *Identity, adminEmail string) bool {
	if identity == nil {
		return false
	}
	email := strings.TrimSpace(identity.Email)
	admin := strings.TrimSpace(adminEmail)
	if email == "" || admin == "" {
		return false
	}
	return strings.EqualFold(email, admin)
}
