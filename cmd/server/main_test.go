package main

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/justjun/blog-api/internal/config"
	"github.com/justjun/blog-api/internal/media"
)

func TestRunMigrateDown_MemoryDriver(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: config.DriverMemory}}

	err := runMigrateDown(cfg, zerolog.Nop())
	if !errors.Is(err, errNoMigrations) {
		t.Errorf("Expected errNoMigrations, got %v", err)
	}
}

func TestNewTokenVerifier_UnknownMode(t *testing.T) {
	if _, err := newTokenVerifier(config.AuthConfig{Mode: "saml"}); err == nil {
		t.Error("expected error for unknown auth mode")
	}
}

func TestNewMediaStore_DisabledWithoutBucket(t *testing.T) {
	store, err := newMediaStore(context.Background(), config.MediaConfig{PublicBaseURL: "https://cdn.example.com"}, zerolog.Nop())
	if err != nil {
		t.Fatalf("newMediaStore failed: %v", err)
	}
	if _, ok := store.(media.Disabled); !ok {
		t.Errorf("Expected disabled media store, got %T", store)
	}
}
