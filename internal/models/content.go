package models

import "time"

// Image is one uploaded media asset attached to an article or project
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
	Alt      string `json:"alt,omitempty"`
}

func cover(images []Image, legacy *Image) *Image {
	if len(images) > 0 {
		img := images[0]
		return &img
	}
	return legacy
}

// Kind identifies an entity kind and doubles as its collection name
type Kind string

const (
	KindArticle Kind = "posts"
	KindProject Kind = "projects"
)

// ListPath returns the public listing path invalidated after mutations of this kind
func (k Kind) ListPath() string {
	if k == KindProject {
		return "/projects"
	}
	return "/articles"
}

// DeletePolicy selects how a delete request is carried out
type DeletePolicy string

const (
	DeleteSoft DeletePolicy = "soft"
	DeleteHard DeletePolicy = "hard"
)

// ValidDeletePolicies defines allowed delete policies
var ValidDeletePolicies = map[DeletePolicy]bool{
	DeleteSoft: true,
	DeleteHard: true,
}

// MediaFailure records a media deletion that did not succeed during a hard delete
type MediaFailure struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error"`
}

// DeleteResult reports the outcome of a delete request. Media failures are
// non-fatal: the document is removed regardless.
type DeleteResult struct {
	ID            string         `json:"id"`
	Mode          DeletePolicy   `json:"mode"`
	Found         bool           `json:"found"`
	RemovedMedia  []string       `json:"removedMedia,omitempty"`
	MediaFailures []MediaFailure `json:"mediaFailures,omitempty"`
	DeletedAt     *time.Time     `json:"deletedAt,omitempty"`
}

// UploadCredential is a signed, time-limited permission to upload one asset
type UploadCredential struct {
	UploadURL string    `json:"uploadUrl"`
	Method    string    `json:"method"`
	PublicID  string    `json:"publicId"`
	PublicURL string    `json:"publicUrl"`
	Preset    string    `json:"preset,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PageMeta carries the SEO metadata of a detail page
type PageMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Canonical   string `json:"canonical"`
	OGImage     string `json:"ogImage"`
}

// DefaultOGImage is used when an entity has neither an og image nor a cover
const DefaultOGImage = "/default-og.svg"
