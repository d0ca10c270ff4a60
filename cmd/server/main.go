package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/justjun/blog-api/internal/api"
	"github.com/justjun/blog-api/internal/auth"
	"github.com/justjun/blog-api/internal/cache"
	"github.com/justjun/blog-api/internal/config"
	"github.com/justjun/blog-api/internal/database"
	"github.com/justjun/blog-api/internal/docstore"
	"github.com/justjun/blog-api/internal/media"
	"github.com/justjun/blog-api/internal/repository"
	"github.com/justjun/blog-api/internal/service"
	"github.com/justjun/blog-api/pkg/logger"
)

func main() {
	migrateDown := flag.Bool("migrate-down", false, "roll back the most recent migration and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log)
	log.Info().Msg("Starting blog API server...")

	if *migrateDown {
		if err := runMigrateDown(cfg, log); err != nil {
			if errors.Is(err, errNoMigrations) {
				log.Warn().Str("driver", cfg.Database.Driver).Msg("-migrate-down has no effect with this driver")
				return
			}
			log.Fatal().Err(err).Msg("Failed to roll back migrations")
		}
		return
	}

	// Initialize document store
	var store docstore.Store
	var probes []api.Probe
	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn().Msg("Using in-memory document store, content is lost on restart")
		store = docstore.NewMemory()
	default:
		db, err := database.New(&cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		// Run migrations
		if err := db.RunMigrations(cfg.Database.MigrationsDir); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}

		store = docstore.NewPostgres(db.DB)
		probes = append(probes, db.HealthCheck)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelStart()

	// Initialize cache
	var redisClient *redis.Client
	if cfg.Cache.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		defer redisClient.Close()
	}
	viewCache := cache.NewWithFallback(startCtx, redisClient, log)

	// Initialize media store
	mediaStore, err := newMediaStore(startCtx, cfg.Media, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize media store")
	}

	// Initialize session verification
	tokens, err := newTokenVerifier(cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize session verifier")
	}

	// Initialize services
	services := service.NewServices(service.Deps{
		Repos:   repository.New(store, cfg.Content),
		Session: auth.NewVerifier(tokens, cfg.Auth.AdminEmail),
		Media:   mediaStore,
		Cache:   viewCache,
	}, cfg, log)

	// Initialize router
	router := api.NewRouter(services, cfg, log, probes...)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

// errNoMigrations is returned by runMigrateDown for drivers without a schema
var errNoMigrations = errors.New("driver has no migrations")

// runMigrateDown rolls back the most recent migration of the configured database
func runMigrateDown(cfg *config.Config, log zerolog.Logger) error {
	if cfg.Database.Driver == config.DriverMemory {
		return errNoMigrations
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return db.MigrateDown(cfg.Database.MigrationsDir)
}

func newMediaStore(ctx context.Context, cfg config.MediaConfig, log zerolog.Logger) (media.Store, error) {
	if cfg.Bucket == "" {
		log.Warn().Msg("MEDIA_BUCKET not set, uploads disabled")
		return media.Disabled{PublicBaseURL: cfg.PublicBaseURL}, nil
	}
	store, err := media.NewS3Store(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("bucket", cfg.Bucket).Str("region", cfg.Region).Msg("Media store ready")
	return store, nil
}

func newTokenVerifier(cfg config.AuthConfig) (auth.TokenVerifier, error) {
	switch cfg.Mode {
	case config.AuthModeHMAC:
		return auth.NewHMACVerifier([]byte(cfg.Secret), cfg.Issuer, cfg.Audience, cfg.ClockSkew), nil
	case config.AuthModeFirebase:
		client := &http.Client{Timeout: 10 * time.Second}
		return auth.NewFirebaseVerifier(cfg.ProjectID, cfg.CertsURL, client, cfg.ClockSkew), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}
