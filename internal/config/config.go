package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Media     MediaConfig
	Cache     CacheConfig
	Content   ContentConfig
	Site      SiteConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds document store connection settings
type DatabaseConfig struct {
	Driver        string // "postgres" or "memory"
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	MaxLifetime   time.Duration
	MigrationsDir string
}

// AuthConfig holds session verification settings
type AuthConfig struct {
	AdminEmail string
	CookieName string
	Mode       string // "hmac" or "firebase"
	Secret     string
	ProjectID  string
	CertsURL   string
	Issuer     string
	Audience   string
	ClockSkew  time.Duration
}

// MediaConfig holds object storage settings for uploaded images
type MediaConfig struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
	DefaultPreset string
	UploadTTL     time.Duration
}

// CacheConfig holds redis settings
type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ListingTTL    time.Duration
	// RefillWindow is how long after a mutation cached views are dropped
	// a second time, outlasting any listing read that started before it.
	// Zero disables the second pass.
	RefillWindow  time.Duration
}

// ContentConfig holds content mutation behaviour
type ContentConfig struct {
	ArticleDeletePolicy string
	ProjectDeletePolicy string
	LegacyImageMirror   bool
	DefaultCategory     string
	ListingLimit        int
}

// SiteConfig describes the public site for feeds and metadata
type SiteConfig struct {
	BaseURL     string
	Title       string
	ShortName   string
	Description string
	Language    string
	ThemeColor  string
}

// RateLimitConfig limits admin requests per client IP
type RateLimitConfig struct {
	AdminPerMinute int
	AdminBurst     int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	AuthModeHMAC     = "hmac"
	AuthModeFirebase = "firebase"
)

const defaultFirebaseCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

// LoadDotEnv seeds the environment from a .env file. The path comes from
// ENV_PATH, falling back to defaultPath. A missing file is not an error.
func LoadDotEnv(defaultPath string) error {
	path := getEnv("ENV_PATH", defaultPath)
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Driver:        getEnv("DB_DRIVER", DriverPostgres),
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", "postgres"),
			Name:          getEnv("DB_NAME", "blog"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:  getIntEnv("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:  getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:   getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsDir: getEnv("DB_MIGRATIONS_DIR", "migrations"),
		},
		Auth: AuthConfig{
			AdminEmail: strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
			CookieName: getEnv("SESSION_COOKIE_NAME", "__session"),
			Mode:       getEnv("AUTH_MODE", AuthModeHMAC),
			Secret:     os.Getenv("AUTH_SECRET"),
			ProjectID:  os.Getenv("FIREBASE_PROJECT_ID"),
			CertsURL:   getEnv("FIREBASE_CERTS_URL", defaultFirebaseCertsURL),
			Issuer:     os.Getenv("AUTH_ISSUER"),
			Audience:   os.Getenv("AUTH_AUDIENCE"),
			ClockSkew:  getDurationEnv("AUTH_CLOCK_SKEW", 30*time.Second),
		},
		Media: MediaConfig{
			Bucket:        os.Getenv("MEDIA_BUCKET"),
			Region:        getEnv("MEDIA_REGION", "us-east-1"),
			Endpoint:      os.Getenv("MEDIA_ENDPOINT"),
			AccessKey:     os.Getenv("MEDIA_ACCESS_KEY"),
			SecretKey:     os.Getenv("MEDIA_SECRET_KEY"),
			PublicBaseURL: strings.TrimRight(os.Getenv("MEDIA_PUBLIC_BASE_URL"), "/"),
			DefaultPreset: getEnv("MEDIA_UPLOAD_PRESET", "blog"),
			UploadTTL:     getDurationEnv("MEDIA_UPLOAD_TTL", 15*time.Minute),
		},
		Cache: CacheConfig{
			RedisAddr:     os.Getenv("REDIS_ADDR"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getIntEnv("REDIS_DB", 0),
			ListingTTL:    getDurationEnv("CACHE_LISTING_TTL", 5*time.Minute),
			RefillWindow:  getDurationEnv("CACHE_REFILL_WINDOW", 15*time.Second),
		},
		Content: ContentConfig{
			ArticleDeletePolicy: getEnv("CONTENT_ARTICLE_DELETE_POLICY", "soft"),
			ProjectDeletePolicy: getEnv("CONTENT_PROJECT_DELETE_POLICY", "soft"),
			LegacyImageMirror:   getBoolEnv("CONTENT_LEGACY_IMAGE_MIRROR", true),
			DefaultCategory:     getEnv("CONTENT_DEFAULT_CATEGORY", "Development"),
			ListingLimit:        getIntEnv("CONTENT_LISTING_LIMIT", 100),
		},
		Site: SiteConfig{
			BaseURL:     strings.TrimRight(getEnv("SITE_BASE_URL", "http://localhost:3000"), "/"),
			Title:       getEnv("SITE_TITLE", "Jun's Blog"),
			ShortName:   getEnv("SITE_SHORT_NAME", "JunBlog"),
			Description: getEnv("SITE_DESCRIPTION", "Notes on software development"),
			Language:    getEnv("SITE_LANGUAGE", "ko"),
			ThemeColor:  getEnv("SITE_THEME_COLOR", "#4f46e5"),
		},
		RateLimit: RateLimitConfig{
			AdminPerMinute: getIntEnv("RATE_LIMIT_ADMIN_PER_MINUTE", 60),
			AdminBurst:     getIntEnv("RATE_LIMIT_ADMIN_BURST", 10),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Auth.AdminEmail == "" {
		return fmt.Errorf("ADMIN_EMAIL is required")
	}

	switch c.Auth.Mode {
	case AuthModeHMAC:
		if c.Auth.Secret == "" {
			return fmt.Errorf("AUTH_SECRET is required when AUTH_MODE=hmac")
		}
	case AuthModeFirebase:
		if c.Auth.ProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required when AUTH_MODE=firebase")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.Auth.Mode)
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}

	for name, policy := range map[string]string{
		"CONTENT_ARTICLE_DELETE_POLICY": c.Content.ArticleDeletePolicy,
		"CONTENT_PROJECT_DELETE_POLICY": c.Content.ProjectDeletePolicy,
	} {
		if policy != "soft" && policy != "hard" {
			return fmt.Errorf("%s must be soft or hard, got %q", name, policy)
		}
	}

	if c.Content.ListingLimit <= 0 {
		return fmt.Errorf("CONTENT_LISTING_LIMIT must be positive")
	}

	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
