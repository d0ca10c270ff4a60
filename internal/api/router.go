package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/justjun/blog-api/internal/config"
	"github.com/justjun/blog-api/internal/service"
)

// requestTimeout bounds the store and media work of a single request
const requestTimeout = 15 * time.Second

// Probe reports whether a backing dependency is reachable
type Probe func(ctx context.Context) error

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger, probes ...Probe) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	// Handlers
	articleHandler := NewArticleHandler(services, cfg, log)
	projectHandler := NewProjectHandler(services, cfg, log)
	mediaHandler := NewMediaHandler(services, cfg, log)
	feedHandler := NewFeedHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(probes))

	// SEO artifacts
	router.GET("/rss.xml", feedHandler.RSS)
	router.GET("/sitemap.xml", feedHandler.Sitemap)
	router.GET("/robots.txt", feedHandler.Robots)
	router.GET("/manifest.webmanifest", feedHandler.Manifest)

	// API v1
	v1 := router.Group("/v1")
	{
		articles := v1.Group("/articles")
		{
			articles.GET("", articleHandler.List)
			articles.GET("/:key", articleHandler.Get)
		}

		projects := v1.Group("/projects")
		{
			projects.GET("", projectHandler.List)
			projects.GET("/:key", projectHandler.Get)
		}

		limiter := newIPRateLimiter(cfg.RateLimit.AdminPerMinute, cfg.RateLimit.AdminBurst)
		admin := v1.Group("/admin", sessionGate(cfg.Auth.CookieName), rateLimitMiddleware(limiter))
		{
			admin.POST("/articles", articleHandler.Create)
			admin.GET("/articles/:id", articleHandler.AdminGet)
			admin.DELETE("/articles/:id", articleHandler.Delete)
			admin.POST("/articles/:id/restore", articleHandler.Restore)

			admin.POST("/projects", projectHandler.Create)
			admin.GET("/projects/:id", projectHandler.AdminGet)
			admin.DELETE("/projects/:id", projectHandler.Delete)
			admin.POST("/projects/:id/restore", projectHandler.Restore)

			admin.POST("/media/signature", mediaHandler.SignUpload)
		}
	}

	return router
}

// healthCheck returns the health status, degraded when a probe fails
func healthCheck(probes []Probe) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := contextWithTimeout(c, 2*time.Second)
		defer cancel()

		status, code := "healthy", http.StatusOK
		for _, probe := range probes {
			if err := probe(ctx); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "blog-api",
		})
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS. Credentials are only allowed for an
// explicitly listed origin.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	wildcard := false
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			wildcard = true
		}
		origins[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case origin != "" && origins[origin]:
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		case wildcard:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// sessionGate hides the admin surface from requests that carry no session
// cookie at all. It is a coarse filter; every admin operation still
// verifies the credential itself.
func sessionGate(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v, err := c.Cookie(cookieName); err != nil || v == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.Next()
	}
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}
