package repository

import (
	"context"
	"fmt"

	"github.com/justjun/blog-api/internal/docstore"
	"github.com/justjun/blog-api/internal/models"
)

type projectRepo struct {
	collection
}

// NewProjectRepo creates a repository over the projects collection
func NewProjectRepo(store docstore.Store, mirror bool) ProjectRepository {
	return &projectRepo{collection: newCollection(store, models.KindProject, mirror)}
}

func (r *projectRepo) Create(ctx context.Context, project *models.Project) (*models.Project, error) {
	tags := project.Tags
	if tags == nil {
		tags = []string{}
	}

	fields := baseFields(project.Images, r.mirror, r.now())
	fields["title"] = project.Title
	fields["description"] = project.Description
	fields["detailContent"] = project.DetailContent
	fields["tags"] = tags
	fields["link"] = project.Link
	fields["featured"] = project.Featured
	for key, value := range map[string]string{
		"slug":   project.Slug,
		"github": project.GitHub,
		"role":   project.Role,
		"period": project.Period,
	} {
		if value != "" {
			fields[key] = value
		}
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
		return nil, fmt.Errorf("project %s vanished after create", id)
	}
	return created, nil
}

func (r *projectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	snap, err := r.docs.Get(ctx, id)
	if err != nil || snap == nil {
		return nil, err
	}
	return decodeProject(snap), nil
}

func (r *projectRepo) FindBySlug(ctx context.Context, slug string) (*models.Project, error) {
	snap, err := r.findOne(ctx, r.activeQuery(1).Where("slug", slug))
	if err != nil || snap == nil {
		return nil, err
	}
	return decodeProject(snap), nil
}

// ListActive lists non-deleted projects, newest first, optionally only
// the featured ones.
func (r *projectRepo) ListActive(ctx context.Context, limit int, featuredOnly bool) ([]*models.Project, error) {
	q := r.activeQuery(limit)
	if featuredOnly {
		q = q.WhereTruthy("featured")
	}

	snaps, err := r.docs.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	projects := make([]*models.Project, 0, len(snaps))
	for _, snap := range snaps {
		projects = append(projects, decodeProject(snap))
	}
	return projects, nil
}

func (r *projectRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	return r.slugExists(ctx, slug)
}

func (r *projectRepo) MarkDeleted(ctx context.Context, id string) (bool, error) {
	return r.markDeleted(ctx, id)
}

func (r *projectRepo) Restore(ctx context.Context, id string) (bool, error) {
	return r.restore(ctx, id)
}

func (r *projectRepo) Delete(ctx context.Context, id string) error {
	return r.docs.Delete(ctx, id)
}
