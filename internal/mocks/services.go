package mocks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/justjun/blog-api/internal/auth"
	"github.com/justjun/blog-api/internal/cache"
	"github.com/justjun/blog-api/internal/media"
	"github.com/justjun/blog-api/internal/models"
)

// ErrInvalidToken is returned by MockTokenVerifier for unknown tokens
var ErrInvalidToken = errors.New("invalid token")

// MockTokenVerifier maps literal token strings to identities
type MockTokenVerifier struct {
	Tokens map[string]*auth.Identity
}

// Verify interface compliance
var _ auth.TokenVerifier = (*MockTokenVerifier)(nil)

func NewMockTokenVerifier() *MockTokenVerifier {
	return &MockTokenVerifier{Tokens: make(map[string]*auth.Identity)}
}

// WithToken registers token as belonging to email
func (m *MockTokenVerifier) WithToken(token, email string) *MockTokenVerifier {
	m.Tokens[token] = &auth.Identity{Subject: "uid-" + token, Email: email, EmailVerified: true}
	return m
}

func (m *MockTokenVerifier) VerifyToken(_ context.Context, token string) (*auth.Identity, error) {
	identity, ok := m.Tokens[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return identity, nil
}

// MockMediaStore records media calls. DeleteErrors fails deletes of
// specific public ids.
type MockMediaStore struct {
	mu           sync.Mutex
	Deleted      []string
	DeleteCalls  int
	SignCalls    int
	DeleteErrors map[string]error
	SignError    error
}

// Verify interface compliance
var _ media.Store = (*MockMediaStore)(nil)

func NewMockMediaStore() *MockMediaStore {
	return &MockMediaStore{DeleteErrors: make(map[string]error)}
}

func (m *MockMediaStore) SignUpload(_ context.Context, preset, filename string) (*models.UploadCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SignCalls++
	if m.SignError != nil {
		return nil, m.SignError
	}
	publicID := fmt.Sprintf("%s/mock-%d", preset, m.SignCalls)
	return &models.UploadCredential{
		UploadURL: "https://uploads.example.com/" + publicID + "?signature=mock",
		Method:    "PUT",
		PublicID:  publicID,
		PublicURL: "https://cdn.example.com/" + publicID,
		Preset:    preset,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func (m *MockMediaStore) Delete(_ context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if err := m.DeleteErrors[publicID]; err != nil {
		return err
	}
	m.Deleted = append(m.Deleted, publicID)
	return nil
}

func (m *MockMediaStore) PublicIDFromURL(rawURL string) string {
	return media.PublicIDFromURL("https://cdn.example.com", rawURL)
}

// TotalCalls returns the number of sign and delete calls
func (m *MockMediaStore) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SignCalls + m.DeleteCalls
}

// MockCache is a memory cache that records invalidated keys
type MockCache struct {
	*cache.MemoryCache
	mu      sync.Mutex
	Deleted []string
}

// Verify interface compliance
var _ cache.Cache = (*MockCache)(nil)

func NewMockCache() *MockCache {
	return &MockCache{MemoryCache: cache.NewMemory()}
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	m.Deleted = append(m.Deleted, keys...)
	m.mu.Unlock()
	return m.MemoryCache.Delete(ctx, keys...)
}

// WasDeleted reports whether key was ever invalidated
func (m *MockCache) WasDeleted(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.Deleted {
		if k == key {
			return true
		}
	}
	return false
}
