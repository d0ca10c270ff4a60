package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/justjun/blog-api/internal/apperr"
)

// writeError maps a service error onto the JSON error envelope
func writeError(c *gin.Context, log zerolog.Logger, err error) {
	if errors.Is(err, errUnsupportedContentType) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		return
	}

	status := apperr.HTTPStatus(err)
	switch status {
	case http.StatusUnauthorized:
		c.JSON(status, gin.H{"error": apperr.AuthMessage})
	case http.StatusBadRequest:
		body := gin.H{"error": err.Error()}
		var vErr *apperr.ValidationError
		if errors.As(err, &vErr) {
			body["fields"] = vErr.Fields
		}
		c.JSON(status, body)
	case http.StatusNotFound:
		c.JSON(status, gin.H{"error": "not found"})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// sessionCredential returns the session cookie value, or "" when absent
func sessionCredential(c *gin.Context, cookieName string) string {
	v, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return v
}
