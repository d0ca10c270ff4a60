package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HMACVerifier verifies HS256 session tokens signed with a shared secret
type HMACVerifier struct {
	secret   []byte
	issuer   string
	audience string
	leeway   time.Duration
}

// NewHMACVerifier creates a verifier. Empty issuer or audience disables that check.
func NewHMACVerifier(secret []byte, issuer, audience string, leeway time.Duration) *HMACVerifier {
	return &HMACVerifier{secret: secret, issuer: issuer, audience: audience, leeway: leeway}
}

func (v *HMACVerifier) VerifyToken(_ context.Context, tokenStr string) (*Identity, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("session secret is not configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	return claims.identity(), nil
}

// SignHMAC issues an HS256 session token. Used by local tooling and tests.
func SignHMAC(secret []byte, subject, email, issuer, audience string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Email:         email,
		EmailVerified: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
