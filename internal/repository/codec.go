package repository

import (
	"strings"
	"time"

	"github.com/justjun/blog-api/internal/docstore"
	"github.com/justjun/blog-api/internal/models"
	"github.com/justjun/blog-api/internal/validation"
)

// Stored documents carry every field shape the site has ever written:
// images as an array or a single legacy "image" object or URL string,
// isDeleted absent on old documents, and timestamps as strings or
// seconds/nanoseconds objects.

func str(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}

func timeField(data map[string]interface{}, key string) time.Time {
	t, _ := docstore.ParseTime(data[key])
	return t
}

func timePtrField(data map[string]interface{}, key string) *time.Time {
	if t, ok := docstore.ParseTime(data[key]); ok {
		return &t
	}
	return nil
}

func decodeImage(v interface{}) *models.Image {
	switch val := v.(type) {
	case map[string]interface{}:
		img := &models.Image{URL: str(val, "url"), PublicID: str(val, "publicId"), Alt: str(val, "alt")}
		if img.URL == "" && img.PublicID == "" {
			return nil
		}
		return img
	case string:
		if strings.TrimSpace(val) == "" {
			return nil
		}
		return &models.Image{URL: val}
	}
	return nil
}

// decodeImages returns the canonical image list and the legacy single image.
// When no images array is stored the legacy image becomes the only entry.
func decodeImages(data map[string]interface{}) ([]models.Image, *models.Image) {
	legacy := decodeImage(data["image"])

	if raw, ok := data["images"].([]interface{}); ok {
		images := make([]models.Image, 0, len(raw))
		for _, item := range raw {
			if img := decodeImage(item); img != nil {
				images = append(images, *img)
			}
		}
		return images, legacy
	}

	if legacy != nil {
		return []models.Image{*legacy}, legacy
	}
	return []models.Image{}, nil
}

func decodeTags(v interface{}) []string {
	switch val := v.(type) {
	case []interface{}:
		tags := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				tags = append(tags, strings.TrimSpace(s))
			}
		}
		return tags
	case string:
		return validation.SplitTags(val)
	}
	return []string{}
}

func encodeImages(images []models.Image) []interface{} {
	out := make([]interface{}, 0, len(images))
	for _, img := range images {
		out = append(out, encodeImage(img))
	}
	return out
}

func encodeImage(img models.Image) map[string]interface{} {
	return map[string]interface{}{"url": img.URL, "publicId": img.PublicID, "alt": img.Alt}
}

// baseFields are written on every create
func baseFields(images []models.Image, mirror bool, now time.Time) docstore.Fields {
	fields := docstore.Fields{
		"images":    encodeImages(images),
		"isDeleted": false,
		"createdAt": docstore.ServerTimestamp,
		"updatedAt": docstore.ServerTimestamp,
		"date":      now.UTC().Format("2006-01-02"),
	}
	if mirror {
		if len(images) > 0 {
			fields["image"] = encodeImage(images[0])
		} else {
			fields["image"] = nil
		}
	}
	return fields
}

func decodeArticle(snap *docstore.Snapshot) *models.Article {
	d := snap.Data
	images, legacy := decodeImages(d)
	return &models.Article{
		ID:          snap.ID,
		Slug:        str(d, "slug"),
		Title:       str(d, "title"),
		Description: str(d, "description"),
		Category:    str(d, "category"),
		ReadTime:    str(d, "readTime"),
		Content:     str(d, "content"),
		OGImage:     str(d, "ogImage"),
		Images:      images,
		Date:        str(d, "date"),
		CreatedAt:   timeField(d, "createdAt"),
		UpdatedAt:   timeField(d, "updatedAt"),
		IsDeleted:   docstore.Truthy(d["isDeleted"]),
		DeletedAt:   timePtrField(d, "deletedAt"),
		LegacyImage: legacy,
	}
}

func decodeProject(snap *docstore.Snapshot) *models.Project {
	d := snap.Data
	images, legacy := decodeImages(d)
	return &models.Project{
		ID:            snap.ID,
		Slug:          str(d, "slug"),
		Title:         str(d, "title"),
		Description:   str(d, "description"),
		DetailContent: str(d, "detailContent"),
		Tags:          decodeTags(d["tags"]),
		Link:          str(d, "link"),
		GitHub:        str(d, "github"),
		Featured:      docstore.Truthy(d["featured"]),
		Role:          str(d, "role"),
		Period:        str(d, "period"),
		Images:        images,
		CreatedAt:     timeField(d, "createdAt"),
		UpdatedAt:     timeField(d, "updatedAt"),
		IsDeleted:     docstore.Truthy(d["isDeleted"]),
		DeletedAt:     timePtrField(d, "deletedAt"),
		LegacyImage:   legacy,
	}
}
