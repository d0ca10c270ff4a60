package repository

import (
	"context"
	"errors"
	"time"

	"github.com/justjun/blog-api/internal/config"
	"github.com/justjun/blog-api/internal/docstore"
	"github.com/justjun/blog-api/internal/models"
)

// ArticleRepository defines the interface for article data operations.
// Lookups return nil, nil when nothing matches.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) (*models.Article, error)
	GetByID(ctx context.Context, id string) (*models.Article, error)
	FindBySlug(ctx context.Context, slug string) (*models.Article, error)
	ListActive(ctx context.Context, limit int) ([]*models.Article, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	MarkDeleted(ctx context.Context, id string) (bool, error)
	Restore(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// ProjectRepository defines the interface for project data operations
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) (*models.Project, error)
	GetByID(ctx context.Context, id string) (*models.Project, error)
	FindBySlug(ctx context.Context, slug string) (*models.Project, error)
	ListActive(ctx context.Context, limit int, featuredOnly bool) ([]*models.Project, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	MarkDeleted(ctx context.Context, id string) (bool, error)
	Restore(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Article ArticleRepository
	Project ProjectRepository
}

// New creates all repositories over the given document store
func New(store docstore.Store, cfg config.ContentConfig) *Repositories {
	return &Repositories{
		Article: NewArticleRepo(store, cfg.LegacyImageMirror),
		Project: NewProjectRepo(store, cfg.LegacyImageMirror),
	}
}

// collection wraps the operations shared by every entity kind
type collection struct {
	docs   docstore.Collection
	mirror bool
	now    func() time.Time
}

func newCollection(store docstore.Store, kind models.Kind, mirror bool) collection {
	return collection{docs: store.Collection(string(kind)), mirror: mirror, now: time.Now}
}

func (c collection) findOne(ctx context.Context, q docstore.Query) (*docstore.Snapshot, error) {
	q.Limit = 1
	snaps, err := c.docs.Query(ctx, q)
	if err != nil || len(snaps) == 0 {
		return nil, err
	}
	return snaps[0], nil
}

func (c collection) activeQuery(limit int) docstore.Query {
	return docstore.Query{OrderBy: "createdAt", Descending: true, TimeOrder: true, Limit: limit}.WhereNotTrue("isDeleted")
}

func (c collection) slugExists(ctx context.Context, slug string) (bool, error) {
	snap, err := c.findOne(ctx, docstore.Query{}.Where("slug", slug))
	return snap != nil, err
}

func (c collection) markDeleted(ctx context.Context, id string) (bool, error) {
	err := c.docs.Update(ctx, id, docstore.Fields{
		"isDeleted": true,
		"deletedAt": docstore.ServerTimestamp,
		"updatedAt": docstore.ServerTimestamp,
	})
	return updated(err)
}

func (c collection) restore(ctx context.Context, id string) (bool, error) {
	err := c.docs.Update(ctx, id, docstore.Fields{
		"isDeleted": false,
		"deletedAt": nil,
		"updatedAt": docstore.ServerTimestamp,
	})
	return updated(err)
}

func updated(err error) (bool, error) {
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
