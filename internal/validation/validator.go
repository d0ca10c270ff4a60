package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/justjun/blog-api/internal/apperr"
	"github.com/justjun/blog-api/internal/models"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const (
	maxTitleLength = 200
	maxSlugLength  = 100
	wordsPerMinute = 200
)

// ValidateArticleInput checks an article create request
func ValidateArticleInput(in *models.ArticleInput) []apperr.FieldError {
	var errors []apperr.FieldError

	errors = append(errors, validateTitle(in.Title)...)
	if strings.TrimSpace(in.Content) == "" {
		errors = append(errors, apperr.FieldError{Field: "content", Message: "content is required"})
	}
	errors = append(errors, validateSlug(in.Slug)...)
	errors = append(errors, validateImages(in.ImageURLs, in.PublicIDs)...)
	if in.OGImage != "" && !isAbsoluteHTTP(in.OGImage) {
		errors = append(errors, apperr.FieldError{Field: "ogImage", Message: "ogImage must be an absolute http(s) URL", Value: in.OGImage})
	}

	return errors
}

// ValidateProjectInput checks a project create request
func ValidateProjectInput(in *models.ProjectInput) []apperr.FieldError {
	var errors []apperr.FieldError

	errors = append(errors, validateTitle(in.Title)...)
	if strings.TrimSpace(in.DetailContent) == "" {
		errors = append(errors, apperr.FieldError{Field: "detailContent", Message: "detailContent is required"})
	}
	errors = append(errors, validateSlug(in.Slug)...)
	errors = append(errors, validateImages(in.ImageURLs, in.PublicIDs)...)

	for field, value := range map[string]string{"link": in.Link, "github": in.GitHub} {
		if value != "" && !isAbsoluteHTTP(value) {
			errors = append(errors, apperr.FieldError{
				Field:   field,
				Message: fmt.Sprintf("%s must be an absolute http(s) URL", field),
				Value:   value,
			})
		}
	}

	return errors
}

func validateTitle(title string) []apperr.FieldError {
	title = strings.TrimSpace(title)
	if title == "" {
		return []apperr.FieldError{{Field: "title", Message: "title is required"}}
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return []apperr.FieldError{{
			Field:   "title",
			Message: fmt.Sprintf("title must be at most %d characters", maxTitleLength),
		}}
	}
	return nil
}

func validateSlug(slug string) []apperr.FieldError {
	if slug == "" {
		return nil
	}
	if len(slug) > maxSlugLength {
		return []apperr.FieldError{{
			Field:   "slug",
			Message: fmt.Sprintf("slug must be at most %d characters", maxSlugLength),
			Value:   slug,
		}}
	}
	if !slugRegex.MatchString(slug) {
		return []apperr.FieldError{{Field: "slug", Message: "slug must be kebab-case", Value: slug}}
	}
	return nil
}

func validateImages(urls, publicIDs []string) []apperr.FieldError {
	var errors []apperr.FieldError

	if len(publicIDs) > len(urls) {
		errors = append(errors, apperr.FieldError{
			Field:   "publicIds",
			Message: fmt.Sprintf("got %d publicIds for %d images", len(publicIDs), len(urls)),
		})
	}

	for i, u := range urls {
		if !isAbsoluteHTTP(u) {
			errors = append(errors, apperr.FieldError{
				Field:   fmt.Sprintf("images[%d]", i),
				Message: "image URL must be an absolute http(s) URL",
				Value:   u,
			})
		}
	}

	return errors
}

func isAbsoluteHTTP(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SplitTags splits a comma-separated tag string, trimming each token and
// dropping empty ones. Duplicates are kept.
func SplitTags(s string) []string {
	tags := []string{}
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ZipImages pairs parallel URL and public id sequences into ordered images.
// A missing public id becomes "". Every image gets alt as its alt text.
func ZipImages(urls, publicIDs []string, alt string) []models.Image {
	images := make([]models.Image, 0, len(urls))
	for i, u := range urls {
		img := models.Image{URL: strings.TrimSpace(u), Alt: alt}
		if i < len(publicIDs) {
			img.PublicID = strings.TrimSpace(publicIDs[i])
		}
		images = append(images, img)
	}
	return images
}

// EstimateReadTime returns a "N min read" label for content
func EstimateReadTime(content string) string {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}
