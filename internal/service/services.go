package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/justjun/blog-api/internal/apperr"
	"github.com/justjun/blog-api/internal/auth"
	"github.com/justjun/blog-api/internal/cache"
	"github.com/justjun/blog-api/internal/config"
	"github.com/justjun/blog-api/internal/media"
	"github.com/justjun/blog-api/internal/models"
	"github.com/justjun/blog-api/internal/repository"
)

// SessionVerifier decides whether a session credential belongs to the administrator
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*auth.Identity, error)
}

// ContentService defines the admin-only content mutation operations.
// Every operation verifies the credential before touching any store.
type ContentService interface {
	CreateArticle(ctx context.Context, credential string, in *models.ArticleInput) (*models.Article, error)
	CreateProject(ctx context.Context, credential string, in *models.ProjectInput) (*models.Project, error)
	DeleteArticle(ctx context.Context, credential, id string) (*models.DeleteResult, error)
	DeleteProject(ctx context.Context, credential, id string) (*models.DeleteResult, error)
	RestoreArticle(ctx context.Context, credential, id string) error
	RestoreProject(ctx context.Context, credential, id string) error
	GetArticleForAdmin(ctx context.Context, credential, id string) (*models.Article, error)
	GetProjectForAdmin(ctx context.Context, credential, id string) (*models.Project, error)
}

// QueryService defines the public read operations
type QueryService interface {
	ListArticles(ctx context.Context) ([]*models.Article, error)
	ListProjects(ctx context.Context, featuredOnly bool) ([]*models.Project, error)
	GetArticle(ctx context.Context, key string) (*ArticlePage, error)
	GetProject(ctx context.Context, key string) (*ProjectPage, error)
}

// MediaService issues upload credentials to the administrator
type MediaService interface {
	SignUpload(ctx context.Context, credential, preset, filename string) (*models.UploadCredential, error)
}

// FeedService renders the SEO artifacts of the site
type FeedService interface {
	RSS(ctx context.Context) (string, error)
	Sitemap(ctx context.Context) (string, error)
	Robots() string
	Manifest() *Manifest
}

// Services holds all service interfaces
type Services struct {
	Content ContentService
	Query   QueryService
	Media   MediaService
	Feed    FeedService
}

// Deps are the collaborators shared by the services
type Deps struct {
	Repos   *repository.Repositories
	Session SessionVerifier
	Media   media.Store
	Cache   cache.Cache
}

// NewServices creates all services
func NewServices(deps Deps, cfg *config.Config, log zerolog.Logger) *Services {
	return &Services{
		Content: newContentService(deps, cfg, log),
		Query:   newQueryService(deps.Repos, deps.Cache, cfg, log),
		Media:   newMediaService(deps.Session, deps.Media, cfg.Media, log),
		Feed:    newFeedService(deps.Repos, deps.Cache, cfg, log),
	}
}

// authorize runs the session verifier and logs the concealed reason of a rejection
func authorize(ctx context.Context, session SessionVerifier, log zerolog.Logger, op, credential string) error {
	identity, err := session.Verify(ctx, credential)
	if err != nil {
		event := log.Warn().Str("op", op)
		var authErr *apperr.AuthError
		if errors.As(err, &authErr) {
			event = event.Str("reason", string(authErr.Reason))
			if authErr.Err != nil {
				event = event.AnErr("cause", authErr.Err)
			}
		} else {
			event = event.Err(err)
			err = apperr.NewAuth(apperr.InvalidCredential, err)
		}
		event.Msg("Admin authorization rejected")
		return err
	}

	log.Debug().Str("op", op).Str("subject", identity.Subject).Msg("Admin authorized")
	return nil
}

// invalidateTimeout bounds the delayed second invalidation
const invalidateTimeout = 5 * time.Second

// invalidate drops the cached views affected by a mutation of kind. A listing
// read that began before the mutation may still write its result afterwards,
// so with a positive refill window the keys are dropped once more when it ends.
func invalidate(ctx context.Context, c cache.Cache, log zerolog.Logger, kind models.Kind, refillWindow time.Duration) {
	keys := []string{cache.KeyRSS, cache.KeySitemap}
	switch kind {
	case models.KindArticle:
		keys = append(keys, cache.KeyArticles)
	case models.KindProject:
		keys = append(keys, cache.KeyProjects, cache.KeyProjectsFeatured)
	}

	if err := c.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Str("kind", string(kind)).Msg("Failed to invalidate cached views")
	}

	if refillWindow <= 0 {
		return
	}
	time.AfterFunc(refillWindow, func() {
		ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
		defer cancel()
		if err := c.Delete(ctx, keys...); err != nil {
			log.Warn().Err(err).Str("kind", string(kind)).Msg("Failed to re-invalidate cached views")
		}
	})
}
