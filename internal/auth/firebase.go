package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultCertsTTL = time.Hour

// FirebaseVerifier verifies RS256 Firebase ID tokens against Google's
// published x509 certificates.
type FirebaseVerifier struct {
	projectID string
	certsURL  string
	client    *http.Client
	leeway    time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
}

// NewFirebaseVerifier creates a verifier for tokens issued to projectID
func NewFirebaseVerifier(projectID, certsURL string, client *http.Client, leeway time.Duration) *FirebaseVerifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &FirebaseVerifier{
		projectID: projectID,
		certsURL:  certsURL,
		client:    client,
		leeway:    leeway,
		now:       time.Now,
	}
}

func (v *FirebaseVerifier) VerifyToken(ctx context.Context, tokenStr string) (*Identity, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no key id")
		}
		return v.key(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer("https://securetoken.google.com/"+v.projectID),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid id token")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("id token has no subject")
	}

	return claims.identity(), nil
}

func (v *FirebaseVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	fresh := v.now().Before(v.expires)
	v.mu.RUnlock()
	if ok && fresh {
		return key, nil
	}

	if err := v.refresh(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	key, ok = v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return key, nil
}

func (v *FirebaseVerifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build certificate request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch certificates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("certificate endpoint returned %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return fmt.Errorf("failed to decode certificates: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, pemCert := range certs {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemCert))
		if err != nil {
			return fmt.Errorf("failed to parse certificate %s: %w", kid, err)
		}
		keys[kid] = key
	}

	v.mu.Lock()
	v.keys = keys
	v.expires = v.now().Add(maxAge(resp.Header.Get("Cache-Control")))
	v.mu.Unlock()
	return nil
}

// maxAge extracts the max-age directive of a Cache-Control header
func maxAge(header string) time.Duration {
	for _, directive := range strings.Split(header, ",") {
		directive = strings.TrimSpace(directive)
		if value, ok := strings.CutPrefix(directive, "max-age="); ok {
			if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}
	return defaultCertsTTL
}
