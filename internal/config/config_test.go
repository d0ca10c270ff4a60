package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_PATH", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("ADMIN_EMAIL", " admin@example.com ")
	t.Setenv("AUTH_SECRET", "test-secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Auth.AdminEmail != "admin@example.com" {
		t.Errorf("Expected trimmed admin email, got %q", cfg.Auth.AdminEmail)
	}
	if cfg.Auth.CookieName != "__session" {
		t.Errorf("Expected cookie __session, got %q", cfg.Auth.CookieName)
	}
	if cfg.Content.ArticleDeletePolicy != "soft" || cfg.Content.ProjectDeletePolicy != "soft" {
		t.Errorf("Expected soft delete defaults, got %q/%q",
			cfg.Content.ArticleDeletePolicy, cfg.Content.ProjectDeletePolicy)
	}
	if !cfg.Content.LegacyImageMirror {
		t.Error("Expected legacy image mirror enabled by default")
	}
	if cfg.Cache.ListingTTL != 5*time.Minute {
		t.Errorf("Expected 5m listing TTL, got %v", cfg.Cache.ListingTTL)
	}
	if cfg.Cache.RefillWindow != 15*time.Second {
		t.Errorf("Expected 15s refill window, got %v", cfg.Cache.RefillWindow)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "ADMIN_EMAIL=dotenv@example.com\nAUTH_SECRET=s3cret\nDB_DRIVER=memory\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_PATH", path)
	// godotenv never overrides variables that are already set; register
	// them with t.Setenv first so they are cleaned up after the test.
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("DB_DRIVER", "")
	os.Unsetenv("ADMIN_EMAIL")
	os.Unsetenv("AUTH_SECRET")
	os.Unsetenv("DB_DRIVER")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Auth.AdminEmail != "dotenv@example.com" {
		t.Errorf("Expected email from .env, got %q", cfg.Auth.AdminEmail)
	}
	if cfg.Database.Driver != DriverMemory {
		t.Errorf("Expected memory driver, got %q", cfg.Database.Driver)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: DriverMemory},
			Auth:     AuthConfig{AdminEmail: "admin@example.com", Mode: AuthModeHMAC, Secret: "x"},
			Content:  ContentConfig{ArticleDeletePolicy: "soft", ProjectDeletePolicy: "hard", ListingLimit: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"missing admin email", func(c *Config) { c.Auth.AdminEmail = "" }, true},
		{"hmac without secret", func(c *Config) { c.Auth.Secret = "" }, true},
		{"firebase without project", func(c *Config) { c.Auth.Mode = AuthModeFirebase }, true},
		{"firebase with project", func(c *Config) {
			c.Auth.Mode = AuthModeFirebase
			c.Auth.ProjectID = "blog"
		}, false},
		{"unknown auth mode", func(c *Config) { c.Auth.Mode = "basic" }, true},
		{"postgres without host", func(c *Config) {
			c.Database.Driver = DriverPostgres
			c.Database.Name = "blog"
		}, true},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mongo" }, true},
		{"bad delete policy", func(c *Config) { c.Content.ArticleDeletePolicy = "archive" }, true},
		{"zero listing limit", func(c *Config) { c.Content.ListingLimit = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetListEnv(t *testing.T) {
	t.Setenv("TEST_LIST", " https://a.example , ,https://b.example")

	got := getListEnv("TEST_LIST", nil)
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("unexpected list %v", got)
	}
}
