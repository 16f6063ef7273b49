package s3

import (
	"context"
	"errors"
	"io"

	apperrors "forecast-pipeline/internal/shared/errors"
	"forecast-pipeline/internal/shared/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ArtifactStore implements the ArtifactStore port on S3 (or any S3-compatible endpoint
// such as MinIO when EndpointURL is set).
type ArtifactStore struct {
	client *s3.Client
	bucket string
	log    logger.Logger
}

// Options configures the S3 artifact store
type Options struct {
	Bucket      string
	Region      string
	EndpointURL string
}

// NewArtifactStore creates an S3-backed artifact store using the default AWS
// credential chain
func NewArtifactStore(ctx context.Context, opts Options, log logger.Logger) (*ArtifactStore, error) {
	if opts.Bucket == "" {
		return nil, apperrors.NewValidationError("s3 bucket is required")
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, apperrors.NewServiceCallError("failed to load aws configuration").WithCause(err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
			o.UsePathStyle = true
		}
	})

	return &ArtifactStore{
		client: client,
		bucket: opts.Bucket,
		log:    log.WithComponent("objectstore.s3"),
	}, nil
}

// Put uploads body under key
func (s *ArtifactStore) Put(ctx context.Context, key string, body io.Reader) error {
	if key == "" {
		return apperrors.NewValidationError("artifact key is required")
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return apperrors.NewServiceCallError("failed to upload artifact").
			WithCause(err).
			WithDetail("bucket", s.bucket).
			WithDetail("key", key)
	}

	s.log.Infof("Uploaded artifact s3://%s/%s", s.bucket, key)
	return nil
}

// Get streams the object at key
func (s *ArtifactStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if key == "" {
		return nil, apperrors.NewValidationError("artifact key is required")
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, apperrors.NewNotFoundError("artifact").
				WithDetail("bucket", s.bucket).
				WithDetail("key", key)
		}
		return nil, apperrors.NewServiceCallError("failed to fetch artifact").
			WithCause(err).
			WithDetail("bucket", s.bucket).
			WithDetail("key", key)
	}
	return out.Body, nil
}
