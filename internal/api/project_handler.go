package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/justjun/blog-api/internal/config"
	"github.com/justjun/blog-api/internal/models"
	"github.com/justjun/blog-api/internal/service"
)

// ProjectHandler handles project endpoints
type ProjectHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "project").Logger(),
	}
}

// List handles GET /v1/projects[?featured=true]
func (h *ProjectHandler) List(c *gin.Context) {
	featuredOnly, _ := strconv.ParseBool(c.Query("featured"))

	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	projects, err := h.services.Query.ListProjects(ctx, featuredOnly)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  projects,
		"count": len(projects),
	})
}

// Get handles GET /v1/projects/:key
func (h *ProjectHandler) Get(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	key := c.Param("key")
	page, err := h.services.Query.GetProject(ctx, key)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	if page.CanonicalKey != key {
		c.Redirect(http.StatusMovedPermanently, "/v1/projects/"+url.PathEscape(page.CanonicalKey))
		return
	}

	c.JSON(http.StatusOK, page)
}

// Create handles POST /v1/admin/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	in, err := bindProjectInput(c)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	project, err := h.services.Content.CreateProject(ctx, sessionCredential(c, h.cfg.Auth.CookieName), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data":     project,
		"redirect": models.KindProject.ListPath(),
	})
}

// AdminGet handles GET /v1/admin/projects/:id
func (h *ProjectHandler) AdminGet(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	project, err := h.services.Content.GetProjectForAdmin(ctx, sessionCredential(c, h.cfg.Auth.CookieName), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": project})
}

// Delete handles DELETE /v1/admin/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	result, err := h.services.Content.DeleteProject(ctx, sessionCredential(c, h.cfg.Auth.CookieName), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":     result,
		"redirect": models.KindProject.ListPath(),
	})
}

// Restore handles POST /v1/admin/projects/:id/restore
func (h *ProjectHandler) Restore(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	id := c.Param("id")
	if err := h.services.Content.RestoreProject(ctx, sessionCredential(c, h.cfg.Auth.CookieName), id); err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       id,
		"restored": true,
		"redirect": models.KindProject.ListPath(),
	})
}
