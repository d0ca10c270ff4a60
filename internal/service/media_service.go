package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/justjun/blog-api/internal/apperr"
	"github.com/justjun/blog-api/internal/config"
	"github.com/justjun/blog-api/internal/media"
	"github.com/justjun/blog-api/internal/models"
)

type mediaService struct {
	session SessionVerifier
	store   media.Store
	preset  string
	log     zerolog.Logger
}

func newMediaService(session SessionVerifier, store media.Store, cfg config.MediaConfig, log zerolog.Logger) *mediaService {
	return &mediaService{
		session: session,
		store:   store,
		preset:  cfg.DefaultPreset,
		log:     log.With().Str("service", "media").Logger(),
	}
}

// SignUpload issues a time-limited upload credential to the administrator
func (s *mediaService) SignUpload(ctx context.Context, credential, preset, filename string) (*models.UploadCredential, error) {
	if err := authorize(ctx, s.session, s.log, "sign_upload", credential); err != nil {
		return nil, err
	}

	if preset == "" {
		preset = s.preset
	}

	cred, err := s.store.SignUpload(ctx, preset, filename)
	if errors.Is(err, media.ErrInvalidPreset) {
		return nil, apperr.NewValidation(apperr.FieldError{Field: "preset", Message: "invalid upload preset", Value: preset})
	}
	if err != nil {
		s.log.Error().Err(err).Str("preset", preset).Msg("Failed to sign upload")
		return nil, err
	}

	s.log.Info().Str("public_id", cred.PublicID).Time("expires_at", cred.ExpiresAt).Msg("Upload signed")
	return cred, nil
}
