package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/justjun/blog-api/internal/apperr"
	"github.com/justjun/blog-api/internal/cache"
	"github.com/justjun/blog-api/internal/config"
	"github.com/justjun/blog-api/internal/models"
	"github.com/justjun/blog-api/internal/render"
	"github.com/justjun/blog-api/internal/repository"
)

const descriptionLength = 160

// Lookup strategies reported in ResolvedBy
const (
	ResolvedBySlug = "slug"
	ResolvedByID   = "id"
)

// ArticlePage is a public article detail view
type ArticlePage struct {
	Article      *models.Article `json:"article"`
	HTML         string          `json:"html"`
	Meta         models.PageMeta `json:"meta"`
	CanonicalKey string          `json:"canonicalKey"`
	ResolvedBy   string          `json:"resolvedBy"`
}

// ProjectPage is a public project detail view
type ProjectPage struct {
	Project      *models.Project `json:"project"`
	HTML         string          `json:"html"`
	Meta         models.PageMeta `json:"meta"`
	CanonicalKey string          `json:"canonicalKey"`
	ResolvedBy   string          `json:"resolvedBy"`
}

type queryService struct {
	repos *repository.Repositories
	cache cache.Cache
	site  config.SiteConfig
	limit int
	cfg   config.CacheConfig
	log   zerolog.Logger
}

func newQueryService(repos *repository.Repositories, c cache.Cache, cfg *config.Config, log zerolog.Logger) *queryService {
	return &queryService{
		repos: repos,
		cache: c,
		site:  cfg.Site,
		limit: cfg.Content.ListingLimit,
		cfg:   cfg.Cache,
		log:   log.With().Str("service", "query").Logger(),
	}
}

// ListArticles lists non-deleted articles, newest first
func (s *queryService) ListArticles(ctx context.Context) ([]*models.Article, error) {
	var cached []*models.Article
	if hit, _ := cache.GetJSON(ctx, s.cache, cache.KeyArticles, &cached); hit {
		return cached, nil
	}

	articles, err := s.repos.Article.ListActive(ctx, s.limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list articles")
		return nil, apperr.NewPersistence("failed to list articles", err)
	}

	if err := cache.SetJSON(ctx, s.cache, cache.KeyArticles, articles, s.cfg.ListingTTL); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache article listing")
	}
	return articles, nil
}

// ListProjects lists non-deleted projects, newest first
func (s *queryService) ListProjects(ctx context.Context, featuredOnly bool) ([]*models.Project, error) {
	key := cache.KeyProjects
	if featuredOnly {
		key = cache.KeyProjectsFeatured
	}

	var cached []*models.Project
	if hit, _ := cache.GetJSON(ctx, s.cache, key, &cached); hit {
		return cached, nil
	}

	projects, err := s.repos.Project.ListActive(ctx, s.limit, featuredOnly)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list projects")
		return nil, apperr.NewPersistence("failed to list projects", err)
	}

	if err := cache.SetJSON(ctx, s.cache, key, projects, s.cfg.ListingTTL); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache project listing")
	}
	return projects, nil
}

// GetArticle resolves key as an active slug first, then as a document id.
// Soft-deleted articles are not found.
func (s *queryService) GetArticle(ctx context.Context, key string) (*ArticlePage, error) {
	resolvedBy := ResolvedBySlug
	article, err := s.repos.Article.FindBySlug(ctx, key)
	if err == nil && article == nil {
		resolvedBy = ResolvedByID
		article, err = s.repos.Article.GetByID(ctx, key)
	}
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to load article")
		return nil, apperr.NewPersistence("failed to load article", err)
	}
	if article == nil || article.IsDeleted {
		return nil, fmt.Errorf("article %s: %w", key, apperr.ErrNotFound)
	}

	html, err := render.Markdown(article.Content)
	if err != nil {
		return nil, err
	}

	return &ArticlePage{
		Article: article,
		HTML:    html,
		Meta: models.PageMeta{
			Title:       article.Title,
			Description: render.Summary(article.Description, article.Content, descriptionLength),
			Canonical:   s.site.BaseURL + "/articles/" + article.Key(),
			OGImage:     s.ogImage(article.OGImage, article.Cover()),
		},
		CanonicalKey: article.Key(),
		ResolvedBy:   resolvedBy,
	}, nil
}

// GetProject resolves key as an active slug first, then as a document id.
// Soft-deleted projects are not found.
func (s *queryService) GetProject(ctx context.Context, key string) (*ProjectPage, error) {
	resolvedBy := ResolvedBySlug
	project, err := s.repos.Project.FindBySlug(ctx, key)
	if err == nil && project == nil {
		resolvedBy = ResolvedByID
		project, err = s.repos.Project.GetByID(ctx, key)
	}
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("Failed to load project")
		return nil, apperr.NewPersistence("failed to load project", err)
	}
	if project == nil || project.IsDeleted {
		return nil, fmt.Errorf("project %s: %w", key, apperr.ErrNotFound)
	}

	html, err := render.Markdown(project.DetailContent)
	if err != nil {
		return nil, err
	}

	return &ProjectPage{
		Project: project,
		HTML:    html,
		Meta: models.PageMeta{
			Title:       project.Title,
			Description: render.Summary(project.Description, project.DetailContent, descriptionLength),
			Canonical:   s.site.BaseURL + "/projects/" + project.Key(),
			OGImage:     s.ogImage("", project.Cover()),
		},
		CanonicalKey: project.Key(),
		ResolvedBy:   resolvedBy,
	}, nil
}

func (s *queryService) ogImage(explicit string, cover *models.Image) string {
	if explicit != "" {
		return explicit
	}
	if cover != nil && cover.URL != "" {
		return cover.URL
	}
	return s.site.BaseURL + models.DefaultOGImage
}
