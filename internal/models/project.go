package models

import (
	"time"
)

// Project represents a portfolio entry stored in the projects collection
type Project struct {
	ID            string     `json:"id"`
	Slug          string     `json:"slug,omitempty"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	DetailContent string     `json:"detailContent"`
	Tags          []string   `json:"tags"`
	Link          string     `json:"link"`
	GitHub        string     `json:"github,omitempty"`
	Featured      bool       `json:"featured"`
	Role          string     `json:"role,omitempty"`
	Period        string     `json:"period,omitempty"`
	Images        []Image    `json:"images"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	IsDeleted     bool       `json:"isDeleted"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty"`

	LegacyImage *Image `json:"-"`
}

// Key returns the public URL key of the project
func (p *Project) Key() string {
	if p.Slug != "" {
		return p.Slug
	}
	return p.ID
}

// Cover returns the image shown in listings
func (p *Project) Cover() *Image {
	return cover(p.Images, p.LegacyImage)
}

// ProjectInput is the typed payload accepted by project creation.
// Tags arrive as a single comma-separated string.
type ProjectInput struct {
	Title         string   `json:"title" form:"title"`
	Slug          string   `json:"slug" form:"slug"`
	Description   string   `json:"description" form:"description"`
	DetailContent string   `json:"detailContent" form:"content"`
	Tags          string   `json:"tags" form:"tags"`
	Link          string   `json:"link" form:"link"`
	GitHub        string   `json:"github" form:"github"`
	Featured      bool     `json:"featured" form:"-"`
	Role          string   `json:"role" form:"role"`
	Period        string   `json:"period" form:"period"`
	ImageURLs     []string `json:"images" form:"images[]"`
	PublicIDs     []string `json:"publicIds" form:"publicIds[]"`
}
