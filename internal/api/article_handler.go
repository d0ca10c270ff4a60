package api

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/justjun/blog-api/internal/config"
	"github.com/justjun/blog-api/internal/models"
	"github.com/justjun/blog-api/internal/service"
)

// ArticleHandler handles article endpoints
type ArticleHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "article").Logger(),
	}
}

// List handles GET /v1/articles
func (h *ArticleHandler) List(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	articles, err := h.services.Query.ListArticles(ctx)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  articles,
		"count": len(articles),
	})
}

// Get handles GET /v1/articles/:key
// A lookup by id of an article that has a slug redirects to the slug URL.
func (h *ArticleHandler) Get(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	key := c.Param("key")
	page, err := h.services.Query.GetArticle(ctx, key)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	if page.CanonicalKey != key {
		c.Redirect(http.StatusMovedPermanently, "/v1/articles/"+url.PathEscape(page.CanonicalKey))
		return
	}

	c.JSON(http.StatusOK, page)
}

// Create handles POST /v1/admin/articles
func (h *ArticleHandler) Create(c *gin.Context) {
	in, err := bindArticleInput(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	article, err := h.services.Content.CreateArticle(ctx, sessionCredential(c, h.cfg.Auth.CookieName), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data":     article,
		"redirect": models.KindArticle.ListPath(),
	})
}

// AdminGet handles GET /v1/admin/articles/:id, soft-deleted articles included
func (h *ArticleHandler) AdminGet(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	article, err := h.services.Content.GetArticleForAdmin(ctx, sessionCredential(c, h.cfg.Auth.CookieName), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": article})
}

// Delete handles DELETE /v1/admin/articles/:id
func (h *ArticleHandler) Delete(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	result, err := h.services.Content.DeleteArticle(ctx, sessionCredential(c, h.cfg.Auth.CookieName), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     result,
		"redirect": models.KindArticle.ListPath(),
	})
}

// Restore handles POST /v1/admin/articles/:id/restore
func (h *ArticleHandler) Restore(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	id := c.Param("id")
	if err := h.services.Content.RestoreArticle(ctx, sessionCredential(c, h.cfg.Auth.CookieName), id); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       id,
		"restored": true,
		"redirect": models.KindArticle.ListPath(),
	})
}
