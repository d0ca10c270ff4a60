// Package media stores uploaded images in an object store and derives
// public ids from stored image URLs.
package media

import (
	"context"
	"errors"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/justjun/blog-api/internal/models"
)

var (
	// ErrDisabled is returned when no media bucket is configured
	ErrDisabled = errors.New("media storage is not configured")
	// ErrInvalidPreset is returned for preset names outside [a-z0-9_-]
	ErrInvalidPreset = errors.New("invalid upload preset")
)

// Store is the media store collaborator
type Store interface {
	SignUpload(ctx context.Context, preset, filename string) (*models.UploadCredential, error)
	Delete(ctx context.Context, publicID string) error
	PublicIDFromURL(rawURL string) string
}

var (
	versionedPath = regexp.MustCompile(`/v\d+/(.+)\.[a-zA-Z0-9]+$`)
	presetPattern = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)
	extPattern    = regexp.MustCompile(`^\.[a-z0-9]{1,5}$`)
)

// PublicIDFromURL derives the public id of an image from its delivery URL.
// URLs under base map to their object key; versioned CDN URLs
// (/v<digits>/<id>.<ext>) map to <id>; anything else maps to its last path
// segment without extension. Non-http URLs yield "".
func PublicIDFromURL(base, rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}

	if base != "" {
		prefix := strings.TrimRight(base, "/") + "/"
		if full := u.Scheme + "://" + u.Host + u.Path; strings.HasPrefix(full, prefix) {
			return strings.TrimPrefix(full, prefix)
		}
	}

	if m := versionedPath.FindStringSubmatch(u.Path); m != nil {
		return m[1]
	}

	last := path.Base(u.Path)
	if last == "/" || last == "." {
		return ""
	}
	return strings.TrimSuffix(last, path.Ext(last))
}

func sanitizeExt(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if !extPattern.MatchString(ext) {
		return ""
	}
	return ext
}

// Disabled is the media store used when no bucket is configured
type Disabled struct {
	PublicBaseURL string
}

func (Disabled) SignUpload(context.Context, string, string) (*models.UploadCredential, error) {
	return nil, ErrDisabled
}

func (Disabled) Delete(context.Context, string) error {
	return ErrDisabled
}

func (d Disabled) PublicIDFromURL(rawURL string) string {
	return PublicIDFromURL(d.PublicBaseURL, rawURL)
}
