package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/justjun/blog-api/internal/service"
)

const feedCacheControl = "public, max-age=3600"

// FeedHandler serves the RSS feed, sitemap, robots.txt and web manifest
type FeedHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(services *service.Services, log zerolog.Logger) *FeedHandler {
	return &FeedHandler{
		services: services,
		log:      log.With().Str("handler", "feed").Logger(),
	}
}

// RSS handles GET /rss.xml
func (h *FeedHandler) RSS(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	body, err := h.services.Feed.RSS(ctx)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.Header("Cache-Control", feedCacheControl)
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(body))
}

// Sitemap handles GET /sitemap.xml
func (h *FeedHandler) Sitemap(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	body, err := h.services.Feed.Sitemap(ctx)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.Header("Cache-Control", feedCacheControl)
	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(body))
}

// Robots handles GET /robots.txt
func (h *FeedHandler) Robots(c *gin.Context) {
	c.Header("Cache-Control", feedCacheControl)
	c.String(http.StatusOK, h.services.Feed.Robots())
}

// Manifest handles GET /manifest.webmanifest
func (h *FeedHandler) Manifest(c *gin.Context) {
	c.Header("Content-Type", "application/manifest+json")
	c.Header("Cache-Control", feedCacheControl)
	c.JSON(http.StatusOK, h.services.Feed.Manifest())
}
