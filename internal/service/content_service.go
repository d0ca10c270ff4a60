package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/justjun/blog-api/internal/apperr"
	"github.com/justjun/blog-api/internal/cache"
	"github.com/justjun/blog-api/internal/config"
	"github.com/justjun/blog-api/internal/media"
	"github.com/justjun/blog-api/internal/models"
	"github.com/justjun/blog-api/internal/repository"
	"github.com/justjun/blog-api/internal/validation"
)

// maxMediaWorkers bounds concurrent media deletions during a hard delete
const maxMediaWorkers = 4

// contentService is the concrete implementation of ContentService
type contentService struct {
	repos           *repository.Repositories
	session         SessionVerifier
	media           media.Store
	cache           cache.Cache
	policies        map[models.Kind]models.DeletePolicy
	defaultCategory string
	refillWindow    time.Duration
	log             zerolog.Logger
}

func newContentService(deps Deps, cfg *config.Config, log zerolog.Logger) *contentService {
	category := cfg.Content.DefaultCategory
	if category == "" {
		category = models.DefaultCategory
	}
	return &contentService{
		repos:   deps.Repos,
		session: deps.Session,
		media:   deps.Media,
		cache:   deps.Cache,
		policies: map[models.Kind]models.DeletePolicy{
			models.KindArticle: policyOrSoft(cfg.Content.ArticleDeletePolicy),
			models.KindProject: policyOrSoft(cfg.Content.ProjectDeletePolicy),
		},
		defaultCategory: category,
		refillWindow:    cfg.Cache.RefillWindow,
		log:             log.With().Str("service", "content").Logger(),
	}
}

func policyOrSoft(p string) models.DeletePolicy {
	if policy := models.DeletePolicy(p); models.ValidDeletePolicies[policy] {
		return policy
	}
	return models.DeleteSoft
}

// CreateArticle verifies the administrator, validates the input, then writes
// a single new document.
func (s *contentService) CreateArticle(ctx context.Context, credential string, in *models.ArticleInput) (*models.Article, error) {
	if err := authorize(ctx, s.session, s.log, "create_article", credential); err != nil {
		return nil, err
	}

	if errs := validation.ValidateArticleInput(in); len(errs) > 0 {
		return nil, apperr.NewValidation(errs...)
	}
	if err := s.checkSlug(ctx, s.repos.Article.SlugExists, in.Slug); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	article := &models.Article{
		Title:       title,
		Slug:        in.Slug,
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		ReadTime:    strings.TrimSpace(in.ReadTime),
		Content:     in.Content,
		OGImage:     strings.TrimSpace(in.OGImage),
		Images:      validation.ZipImages(in.ImageURLs, in.PublicIDs, title),
	}
	if article.Category == "" {
		article.Category = s.defaultCategory
	}
	if article.ReadTime == "" {
		article.ReadTime = validation.EstimateReadTime(in.Content)
	}

	created, err := s.repos.Article.Create(ctx, article)
	if err != nil {
		s.log.Error().Err(err).Str("title", title).Msg("Failed to create article")
		return nil, apperr.NewPersistence("failed to save article", err)
	}

	invalidate(ctx, s.cache, s.log, models.KindArticle, s.refillWindow)

	s.log.Info().
		Str("id", created.ID).
		Str("slug", created.Slug).
		Int("images", len(created.Images)).
		Msg("Article created")

	return created, nil
}

// CreateProject verifies the administrator, validates the input, then writes
// a single new document.
func (s *contentService) CreateProject(ctx context.Context, credential string, in *models.ProjectInput) (*models.Project, error) {
	if err := authorize(ctx, s.session, s.log, "create_project", credential); err != nil {
		return nil, err
	}

	if errs := validation.ValidateProjectInput(in); len(errs) > 0 {
		return nil, apperr.NewValidation(errs...)
	}
	if err := s.checkSlug(ctx, s.repos.Project.SlugExists, in.Slug); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	project := &models.Project{
		Title:         title,
		Slug:          in.Slug,
		Description:   strings.TrimSpace(in.Description),
		DetailContent: in.DetailContent,
		Tags:          validation.SplitTags(in.Tags),
		Link:          strings.TrimSpace(in.Link),
		GitHub:        strings.TrimSpace(in.GitHub),
		Featured:      in.Featured,
		Role:          strings.TrimSpace(in.Role),
		Period:        strings.TrimSpace(in.Period),
		Images:        validation.ZipImages(in.ImageURLs, in.PublicIDs, title),
	}

	created, err := s.repos.Project.Create(ctx, project)
	if err != nil {
		s.log.Error().Err(err).Str("title", title).Msg("Failed to create project")
		return nil, apperr.NewPersistence("failed to save project", err)
	}

	invalidate(ctx, s.cache, s.log, models.KindProject, s.refillWindow)

	s.log.Info().
		Str("id", created.ID).
		Bool("featured", created.Featured).
		Int("images", len(created.Images)).
		Msg("Project created")

	return created, nil
}

func (s *contentService) checkSlug(ctx context.Context, exists func(context.Context, string) (bool, error), slug string) error {
	if slug == "" {
		return nil
	}
	taken, err := exists(ctx, slug)
	if err != nil {
		s.log.Error().Err(err).Str("slug", slug).Msg("Failed to check slug")
		return apperr.NewPersistence("failed to check slug", err)
	}
	if taken {
		return apperr.NewValidation(apperr.FieldError{Field: "slug", Message: "slug is already in use", Value: slug})
	}
	return nil
}

// entityRef is the part of an article or project a delete needs
type entityRef struct {
	deleted   bool
	deletedAt *time.Time
	images    []models.Image
	legacy    *models.Image
}

type deleteOps struct {
	kind        models.Kind
	get         func(ctx context.Context, id string) (*entityRef, error)
	markDeleted func(ctx context.Context, id string) (bool, error)
	remove      func(ctx context.Context, id string) error
}

// DeleteArticle removes an article per the configured delete policy.
// Deleting an absent article succeeds with Found=false.
func (s *contentService) DeleteArticle(ctx context.Context, credential, id string) (*models.DeleteResult, error) {
	if err := authorize(ctx, s.session, s.log, "delete_article", credential); err != nil {
		return nil, err
	}

	repo := s.repos.Article
	return s.delete(ctx, id, deleteOps{
		kind: models.KindArticle,
		get: func(ctx context.Context, id string) (*entityRef, error) {
			a, err := repo.GetByID(ctx, id)
			if err != nil || a == nil {
				return nil, err
			}
			return &entityRef{deleted: a.IsDeleted, deletedAt: a.DeletedAt, images: a.Images, legacy: a.LegacyImage}, nil
		},
		markDeleted: repo.MarkDeleted,
		remove:      repo.Delete,
	})
}

// DeleteProject removes a project per the configured delete policy.
// Deleting an absent project succeeds with Found=false.
func (s *contentService) DeleteProject(ctx context.Context, credential, id string) (*models.DeleteResult, error) {
	if err := authorize(ctx, s.session, s.log, "delete_project", credential); err != nil {
		return nil, err
	}

	repo := s.repos.Project
	return s.delete(ctx, id, deleteOps{
		kind: models.KindProject,
		get: func(ctx context.Context, id string) (*entityRef, error) {
			p, err := repo.GetByID(ctx, id)
			if err != nil || p == nil {
				return nil, err
			}
			return &entityRef{deleted: p.IsDeleted, deletedAt: p.DeletedAt, images: p.Images, legacy: p.LegacyImage}, nil
		},
		markDeleted: repo.MarkDeleted,
		remove:      repo.Delete,
	})
}

func (s *contentService) delete(ctx context.Context, id string, ops deleteOps) (*models.DeleteResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.NewValidation(apperr.FieldError{Field: "id", Message: "id is required"})
	}

	policy := s.policies[ops.kind]
	result := &models.DeleteResult{ID: id, Mode: policy}
	log := s.log.With().Str("kind", string(ops.kind)).Str("id", id).Str("mode", string(policy)).Logger()

	ref, err := ops.get(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load delete target")
		return nil, apperr.NewPersistence("failed to delete", err)
	}
	if ref == nil {
		log.Info().Msg("Delete target absent, nothing to do")
		return result, nil
	}
	result.Found = true

	switch policy {
	case models.DeleteHard:
		result.RemovedMedia, result.MediaFailures = s.deleteMedia(ctx, log, mediaTargets(s.media, ref.images, ref.legacy))
		if err := ops.remove(ctx, id); err != nil {
			log.Error().Err(err).Msg("Failed to remove document")
			return nil, apperr.NewPersistence("failed to delete", err)
		}
	default:
		if ref.deleted {
			log.Info().Msg("Already soft-deleted")
			result.DeletedAt = ref.deletedAt
			return result, nil
		}
		if _, err := ops.markDeleted(ctx, id); err != nil {
			log.Error().Err(err).Msg("Failed to mark document deleted")
			return nil, apperr.NewPersistence("failed to delete", err)
		}
		// deletedAt is assigned by the store clock
		if marked, err := ops.get(ctx, id); err != nil {
			log.Warn().Err(err).Msg("Failed to re-read soft-deleted document")
		} else if marked != nil {
			result.DeletedAt = marked.deletedAt
		}
	}

	invalidate(ctx, s.cache, s.log, ops.kind, s.refillWindow)

	log.Info().
		Int("media_removed", len(result.RemovedMedia)).
		Int("media_failed", len(result.MediaFailures)).
		Msg("Content deleted")

	return result, nil
}

type mediaTarget struct {
	publicID string
	url      string
}

// mediaTargets lists the media to remove with a document: each image's
// public id, or the id parsed from its URL, plus the legacy image when it is
// distinct. Duplicates are removed.
func mediaTargets(store media.Store, images []models.Image, legacy *models.Image) []mediaTarget {
	var targets []mediaTarget
	seen := make(map[string]bool)

	add := func(img models.Image) {
		id := strings.TrimSpace(img.PublicID)
		if id == "" {
			id = store.PublicIDFromURL(img.URL)
		}
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		targets = append(targets, mediaTarget{publicID: id, url: img.URL})
	}

	for _, img := range images {
		add(img)
	}
	if legacy != nil {
		add(*legacy)
	}
	return targets
}

// deleteMedia runs the compensating media deletions with bounded
// concurrency. Failures are logged and reported, never returned.
func (s *contentService) deleteMedia(ctx context.Context, log zerolog.Logger, targets []mediaTarget) ([]string, []models.MediaFailure) {
	errs := make([]error, len(targets))
	sem := make(chan struct{}, maxMediaWorkers)
	var wg sync.WaitGroup

	for i, target := range targets {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, publicID string) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = s.media.Delete(ctx, publicID)
		}(i, target.publicID)
	}
	wg.Wait()

	var removed []string
	var failures []models.MediaFailure
	for i, target := range targets {
		if errs[i] != nil {
			log.Warn().Err(errs[i]).Str("public_id", target.publicID).Msg("Failed to delete media")
			failures = append(failures, models.MediaFailure{
				PublicID: target.publicID,
				URL:      target.url,
				Error:    errs[i].Error(),
			})
			continue
		}
		removed = append(removed, target.publicID)
	}
	return removed, failures
}

// RestoreArticle clears the deleted flag of a soft-deleted article
func (s *contentService) RestoreArticle(ctx context.Context, credential, id string) error {
	if err := authorize(ctx, s.session, s.log, "restore_article", credential); err != nil {
		return err
	}
	return s.restore(ctx, models.KindArticle, s.repos.Article.Restore, id)
}

// RestoreProject clears the deleted flag of a soft-deleted project
func (s *contentService) RestoreProject(ctx context.Context, credential, id string) error {
	if err := authorize(ctx, s.session, s.log, "restore_project", credential); err != nil {
		return err
	}
	return s.restore(ctx, models.KindProject, s.repos.Project.Restore, id)
}

func (s *contentService) restore(ctx context.Context, kind models.Kind, restore func(context.Context, string) (bool, error), id string) error {
	found, err := restore(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("kind", string(kind)).Str("id", id).Msg("Failed to restore")
		return apperr.NewPersistence("failed to restore", err)
	}
	if !found {
		return fmt.Errorf("%s %s: %w", kind, id, apperr.ErrNotFound)
	}

	invalidate(ctx, s.cache, s.log, kind, s.refillWindow)
	s.log.Info().Str("kind", string(kind)).Str("id", id).Msg("Content restored")
	return nil
}

// GetArticleForAdmin returns an article by id, soft-deleted included
func (s *contentService) GetArticleForAdmin(ctx context.Context, credential, id string) (*models.Article, error) {
	if err := authorize(ctx, s.session, s.log, "get_article", credential); err != nil {
		return nil, err
	}

	article, err := s.repos.Article.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NewPersistence("failed to load article", err)
	}
	if article == nil {
		return nil, fmt.Errorf("article %s: %w", id, apperr.ErrNotFound)
	}
	return article, nil
}

// GetProjectForAdmin returns a project by id, soft-deleted included
func (s *contentService) GetProjectForAdmin(ctx context.Context, credential, id string) (*models.Project, error) {
	if err := authorize(ctx, s.session, s.log, "get_project", credential); err != nil {
		return nil, err
	}

	project, err := s.repos.Project.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NewPersistence("failed to load project", err)
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", id, apperr.ErrNotFound)
	}
	return project, nil
}
