package repository

import (
	"context"
	"fmt"

	"github.com/justjun/blog-api/internal/docstore"
	"github.com/justjun/blog-api/internal/models"
)

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	collection
}

// NewArticleRepo creates a repository over the posts collection. When
// mirror is set, the first image is also written to the legacy image field.
func NewArticleRepo(store docstore.Store, mirror bool) ArticleRepository {
	return &articleRepo{collection: newCollection(store, models.KindArticle, mirror)}
}

// Create writes a new article and reads it back with resolved timestamps
func (r *articleRepo) Create(ctx context.Context, article *models.Article) (*models.Article, error) {
	fields := baseFields(article.Images, r.mirror, r.now())
	fields["title"] = article.Title
	fields["content"] = article.Content
	fields["description"] = article.Description
	fields["category"] = article.Category
	fields["readTime"] = article.ReadTime
	if article.Slug != "" {
		fields["slug"] = article.Slug
	}
	if article.OGImage != "" {
		fields["ogImage"] = article.OGImage
	}

	id, err := r.docs.Add(ctx, fields)
	if err != nil {
		return nil, err
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, fmt.Errorf("article %s vanished after create", id)
	}
	return created, nil
}

// GetByID retrieves an article by id, soft-deleted included
func (r *articleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	snap, err := r.docs.Get(ctx, id)
	if err != nil || snap == nil {
		return nil, err
	}
	return decodeArticle(snap), nil
}

// FindBySlug retrieves the active article with the given slug
func (r *articleRepo) FindBySlug(ctx context.Context, slug string) (*models.Article, error) {
	snap, err := r.findOne(ctx, r.activeQuery(1).Where("slug", slug))
	if err != nil || snap == nil {
		return nil, err
	}
	return decodeArticle(snap), nil
}

// ListActive lists non-deleted articles, newest first
func (r *articleRepo) ListActive(ctx context.Context, limit int) ([]*models.Article, error) {
	snaps, err := r.docs.Query(ctx, r.activeQuery(limit))
	if err != nil {
		return nil, err
	}

	articles := make([]*models.Article, 0, len(snaps))
	for _, snap := range snaps {
		articles = append(articles, decodeArticle(snap))
	}
	return articles, nil
}

// SlugExists reports whether any article, deleted or not, uses slug
func (r *articleRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	return r.slugExists(ctx, slug)
}

// MarkDeleted soft-deletes an article. It reports false when absent.
func (r *articleRepo) MarkDeleted(ctx context.Context, id string) (bool, error) {
	return r.markDeleted(ctx, id)
}

// Restore clears the deleted flag. It reports false when absent.
func (r *articleRepo) Restore(ctx context.Context, id string) (bool, error) {
	return r.restore(ctx, id)
}

// Delete removes the document. Deleting an absent article succeeds.
func (r *articleRepo) Delete(ctx context.Context, id string) error {
	return r.docs.Delete(ctx, id)
}
