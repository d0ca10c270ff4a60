package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/justjun/blog-api/internal/apperr"
	"github.com/justjun/blog-api/internal/config"
	"github.com/justjun/blog-api/internal/media"
	"github.com/justjun/blog-api/internal/service"
)

// MediaHandler handles upload signature requests
type MediaHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "media").Logger(),
	}
}

type signUploadRequest struct {
	Preset   string `json:"preset"`
	Filename string `json:"filename"`
}

// SignUpload handles POST /v1/admin/media/signature
func (h *MediaHandler) SignUpload(c *gin.Context) {
	var req signUploadRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, h.log, apperr.NewValidation(apperr.FieldError{Field: "body", Message: "invalid JSON body"}))
			return
		}
	}

	ctx, cancel := contextWithTimeout(c, requestTimeout)
	defer cancel()

	cred, err := h.services.Media.SignUpload(ctx, sessionCredential(c, h.cfg.Auth.CookieName), req.Preset, req.Filename)
	if errors.Is(err, media.ErrDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media uploads are not configured"})
		return
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cred})
}
