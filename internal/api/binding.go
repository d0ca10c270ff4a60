package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/justjun/blog-api/internal/apperr"
	"github.com/justjun/blog-api/internal/models"
)

const maxFormMemory = 8 << 20

var errUnsupportedContentType = errors.New("content type must be application/json or a form encoding")

var (
	articleFormKeys = keySet("title", "slug", "description", "category", "readTime", "content", "ogImage", "images[]", "publicIds[]")
	projectFormKeys = keySet("title", "slug", "description", "content", "tags", "link", "github", "featured", "role", "period", "images[]", "publicIds[]")
)

func keySet(keys ...string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

func init() {
	// Create payloads are closed: a JSON field the input type does not name is an error.
	binding.EnableDecoderDisallowUnknownFields = true
}

// bindArticleInput decodes an article create request from JSON or form data
func bindArticleInput(c *gin.Context) (*models.ArticleInput, error) {
	var in models.ArticleInput
	if err := bindInput(c, &in, articleFormKeys); err != nil {
		return nil, err
	}
	return &in, nil
}

// bindProjectInput decodes a project create request. On forms the featured
// flag is a checkbox: present with "on" or "true" means set.
func bindProjectInput(c *gin.Context) (*models.ProjectInput, error) {
	var in models.ProjectInput
	if err := bindInput(c, &in, projectFormKeys); err != nil {
		return nil, err
	}
	if isForm(c) {
		switch strings.ToLower(strings.TrimSpace(c.PostForm("featured"))) {
		case "on", "true", "1":
			in.Featured = true
		}
	}
	return &in, nil
}

func isForm(c *gin.Context) bool {
	switch c.ContentType() {
	case binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		return true
	}
	return false
}

func bindInput(c *gin.Context, dst interface{}, allowed map[string]bool) error {
	switch {
	case c.ContentType() == binding.MIMEJSON:
		if err := c.ShouldBindJSON(dst); err != nil {
			return apperr.NewValidation(apperr.FieldError{Field: "body", Message: fmt.Sprintf("invalid JSON body: %v", err)})
		}
		return nil
	case isForm(c):
		if err := c.Request.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return apperr.NewValidation(apperr.FieldError{Field: "body", Message: fmt.Sprintf("invalid form body: %v", err)})
		}
		if unknown := unknownFormKeys(c.Request, allowed); len(unknown) > 0 {
			fields := make([]apperr.FieldError, 0, len(unknown))
			for _, key := range unknown {
				fields = append(fields, apperr.FieldError{Field: key, Message: "unknown field"})
			}
			return apperr.NewValidation(fields...)
		}
		if err := c.ShouldBindWith(dst, binding.Form); err != nil {
			return apperr.NewValidation(apperr.FieldError{Field: "body", Message: fmt.Sprintf("invalid form body: %v", err)})
		}
		return nil
	default:
		return errUnsupportedContentType
	}
}

func unknownFormKeys(r *http.Request, allowed map[string]bool) []string {
	var unknown []string
	for key := range r.PostForm {
		if !allowed[key] {
			unknown = append(unknown, key)
		}
	}
	if r.MultipartForm != nil {
		for key := range r.MultipartForm.File {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return unknown
}
