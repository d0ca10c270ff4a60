package media

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/justjun/blog-api/internal/config"
	"github.com/justjun/blog-api/internal/models"
)

type objectAPI interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type presignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store keeps uploads in an S3-compatible bucket. Clients upload directly
// with a presigned PUT; the server only signs and deletes.
type S3Store struct {
	objects       objectAPI
	presign       presignAPI
	bucket        string
	publicBase    string
	defaultPreset string
	ttl           time.Duration
	now           func() time.Time
	newID         func() string
}

// NewS3Store builds an S3 client from cfg. A custom endpoint switches to
// path-style addressing for S3-compatible services.
func NewS3Store(ctx context.Context, cfg config.MediaConfig) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, cfg), nil
}

func newS3Store(client *s3.Client, cfg config.MediaConfig) *S3Store {
	publicBase := cfg.PublicBaseURL
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &S3Store{
		objects:       client,
		presign:       s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		publicBase:    publicBase,
		defaultPreset: cfg.DefaultPreset,
		ttl:           cfg.UploadTTL,
		now:           time.Now,
		newID:         uuid.NewString,
	}
}

// SignUpload returns a presigned PUT for a new object under the preset prefix
func (s *S3Store) SignUpload(ctx context.Context, preset, filename string) (*models.UploadCredential, error) {
	if preset == "" {
		preset = s.defaultPreset
	}
	if !presetPattern.MatchString(preset) {
		return nil, ErrInvalidPreset
	}

	key := preset + "/" + s.newID() + sanitizeExt(filename)

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.ttl
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	method := req.Method
	if method == "" {
		method = http.MethodPut
	}

	return &models.UploadCredential{
		UploadURL: req.URL,
		Method:    method,
		PublicID:  key,
		PublicURL: s.publicBase + "/" + key,
		Preset:    preset,
		ExpiresAt: s.now().Add(s.ttl),
	}, nil
}

// Delete removes the object with the given public id
func (s *S3Store) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return fmt.Errorf("empty public id")
	}
	_, err := s.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", publicID, err)
	}
	return nil
}

// PublicIDFromURL maps a delivery URL back to its object key
func (s *S3Store) PublicIDFromURL(rawURL string) string {
	return PublicIDFromURL(s.publicBase, rawURL)
}
