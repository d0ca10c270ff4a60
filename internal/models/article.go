package models

import (
	"time"
)

// Article represents a blog post stored in the posts collection
type Article struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	ReadTime    string     `json:"readTime"`
	Content     string     `json:"content"`
	OGImage     string     `json:"ogImage,omitempty"`
	Images      []Image    `json:"images"`
	Date        string     `json:"date"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	IsDeleted   bool       `json:"isDeleted"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`

	// LegacyImage is the pre-migration single image field as stored, if any.
	LegacyImage *Image `json:"-"`
}

// Key returns the public URL key of the article: the slug, or the id when no slug is set
func (a *Article) Key() string {
	if a.Slug != "" {
		return a.Slug
	}
	return a.ID
}

// Cover returns the image shown in listings
func (a *Article) Cover() *Image {
	return cover(a.Images, a.LegacyImage)
}

// ArticleInput is the typed payload accepted by article creation
type ArticleInput struct {
	Title       string   `json:"title" form:"title"`
	Slug        string   `json:"slug" form:"slug"`
	Description string   `json:"description" form:"description"`
	Category    string   `json:"category" form:"category"`
	ReadTime    string   `json:"readTime" form:"readTime"`
	Content     string   `json:"content" form:"content"`
	OGImage     string   `json:"ogImage" form:"ogImage"`
	ImageURLs   []string `json:"images" form:"images[]"`
	PublicIDs   []string `json:"publicIds" form:"publicIds[]"`
}

// DefaultCategory is applied when an article is created without a category
const DefaultCategory = "Development"
