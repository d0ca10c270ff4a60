package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/justjun/blog-api/internal/apperr"
)

var testSecret = []byte("test-secret")

type stubTokens struct {
	identity *Identity
	err      error
	calls    int
}

func (s *stubTokens) VerifyToken(_ context.Context, _ string) (*Identity, error) {
	s.calls++
	return s.identity, s.err
}

func authReason(t *testing.T, err error) apperr.AuthReason {
	t.Helper()
	var authErr *apperr.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if err.Error() != apperr.AuthMessage {
		t.Errorf("expected generic message, got %q", err.Error())
	}
	return authErr.Reason
}

func TestVerifier_FailureOrder(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		tokens     *stubTokens
		wantReason apperr.AuthReason
		wantCalls  int
	}{
		{"empty token", "", &stubTokens{}, apperr.Unauthenticated, 0},
		{"whitespace token", "   ", &stubTokens{}, apperr.Unauthenticated, 0},
		{"invalid token", "garbage", &stubTokens{err: errors.New("bad signature")}, apperr.InvalidCredential, 1},
		{"wrong email", "tok", &stubTokens{identity: &Identity{Email: "someone@example.com"}}, apperr.Forbidden, 1},
		{"no email", "tok", &stubTokens{identity: &Identity{Subject: "uid"}}, apperr.Forbidden, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifier(tt.tokens, "admin@example.com")

			_, err := v.Verify(context.Background(), tt.token)
			if got := authReason(t, err); got != tt.wantReason {
				t.Errorf("Expected reason %s, got %s", tt.wantReason, got)
			}
			if tt.tokens.calls != tt.wantCalls {
				t.Errorf("Expected %d token verifications, got %d", tt.wantCalls, tt.tokens.calls)
			}
		})
	}
}

func TestVerifier_AcceptsAdmin(t *testing.T) {
	tokens := &stubTokens{identity: &Identity{Subject: "uid-1", Email: "Admin@Example.com "}}
	v := NewVerifier(tokens, "admin@example.com")

	identity, err := v.Verify(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if identity.Subject != "uid-1" {
		t.Errorf("Expected subject uid-1, got %s", identity.Subject)
	}
}

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		name     string
		identity *Identity
		admin    string
		want     bool
	}{
		{"nil identity", nil, "admin@example.com", false},
		{"exact", &Identity{Email: "admin@example.com"}, "admin@example.com", true},
		{"case insensitive", &Identity{Email: "ADMIN@example.com"}, "admin@example.com", true},
		{"other", &Identity{Email: "guest@example.com"}, "admin@example.com", false},
		{"empty admin", &Identity{Email: ""}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAdmin(tt.identity, tt.admin); got != tt.want {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHMACVerifier(t *testing.T) {
	v := NewHMACVerifier(testSecret, "blog-api", "blog", 0)
	ctx := context.Background()

	valid, err := SignHMAC(testSecret, "uid-1", "admin@example.com", "blog-api", "blog", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	identity, err := v.VerifyToken(ctx, valid)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if identity.Email != "admin@example.com" || !identity.EmailVerified {
		t.Errorf("unexpected identity %+v", identity)
	}

	expired, _ := SignHMAC(testSecret, "uid-1", "admin@example.com", "blog-api", "blog", -time.Minute)
	wrongSecret, _ := SignHMAC([]byte("other"), "uid-1", "admin@example.com", "blog-api", "blog", time.Hour)
	wrongIssuer, _ := SignHMAC(testSecret, "uid-1", "admin@example.com", "someone-else", "blog", time.Hour)
	wrongAudience, _ := SignHMAC(testSecret, "uid-1", "admin@example.com", "blog-api", "other", time.Hour)
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{Email: "admin@example.com"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{
		"expired":        expired,
		"wrong secret":   wrongSecret,
		"wrong issuer":   wrongIssuer,
		"wrong audience": wrongAudience,
		"alg none":       unsigned,
		"malformed":      "not.a.token",
	} {
		if _, err := v.VerifyToken(ctx, tok); err == nil {
			t.Errorf("%s: expected verification failure", name)
		}
	}
}

func newTestCert(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "securetoken.system.gserviceaccount.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))
}

func signFirebase(t *testing.T, key *rsa.PrivateKey, kid, project, email string) string {
	t.Helper()
	now := time.Now()
	claims := SessionClaims{
		Email:         email,
		EmailVerified: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "firebase-uid",
			Issuer:    "https://securetoken.google.com/" + project,
			Audience:  jwt.ClaimStrings{project},
			IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatal(err)
	}
	return signed
}

func TestFirebaseVerifier(t *testing.T) {
	key, certPEM := newTestCert(t)
	var fetches int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		w.Header().Set("Cache-Control", "public, max-age=600, must-revalidate")
		json.NewEncoder(w).Encode(map[string]string{"kid-1": certPEM})
	}))
	defer srv.Close()

	v := NewFirebaseVerifier("jun-blog", srv.URL, srv.Client(), 0)
	ctx := context.Background()

	token := signFirebase(t, key, "kid-1", "jun-blog", "admin@example.com")
	for i := 0; i < 2; i++ {
		identity, err := v.VerifyToken(ctx, token)
		if err != nil {
			t.Fatalf("VerifyToken failed: %v", err)
		}
		if identity.Subject != "firebase-uid" || identity.Email != "admin@example.com" {
			t.Errorf("unexpected identity %+v", identity)
		}
	}
	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Errorf("Expected certificates fetched once, got %d", n)
	}

	if _, err := v.VerifyToken(ctx, signFirebase(t, key, "kid-1", "other-project", "admin@example.com")); err == nil {
		t.Error("expected audience/issuer mismatch to fail")
	}
	if _, err := v.VerifyToken(ctx, signFirebase(t, key, "kid-unknown", "jun-blog", "admin@example.com")); err == nil {
		t.Error("expected unknown key id to fail")
	}

	other, _ := newTestCert(t)
	if _, err := v.VerifyToken(ctx, signFirebase(t, other, "kid-1", "jun-blog", "admin@example.com")); err == nil {
		t.Error("expected signature from another key to fail")
	}
}

func TestMaxAge(t *testing.T) {
	tests := map[string]time.Duration{
		"public, max-age=19204, must-revalidate": 19204 * time.Second,
		"max-age=60":                             time.Minute,
		"no-cache":                               defaultCertsTTL,
		"":                                       defaultCertsTTL,
		"max-age=abc":                            defaultCertsTTL,
	}
	for header, want := range tests {
		if got := maxAge(header); got != want {
			t.Errorf("maxAge(%q) = %v, want %v", header, got, want)
		}
	}
}
