package avatar

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/yuchiehee/personalpage-backend/internal/platform/errors"
)

// S3Config holds everything needed to talk to an S3-compatible bucket.
// Endpoint is optional and overrides the AWS endpoint for MinIO and friends.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
}

// S3Store uploads avatars to an S3-compatible object store.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
	clock     clockwork.Clock
}

func NewS3Store(ctx context.Context, cfg S3Config, clock clockwork.Clock) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
		clock:     clock,
	}, nil
}

func contentTypeFor(ext string) string {
	if ext == "png" {
		return "image/png"
	}
	return "image/jpeg"
}

func (s *S3Store) Save(ctx context.Context, accountID uuid.UUID, ext string, data []byte) (string, error) {
	ext, err := NormalizeExtension(ext)
	if err != nil {
		return "", err
	}

	key := objectName(accountID, ext, s.clock.Now())
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentTypeFor(ext)),
	})
	if err != nil {
		// The bucket is an upstream dependency; its outages are a 502, not a 500
		return "", errors.ExternalError("failed to store avatar", err)
	}

	return s.publicURL + "/" + key, nil
}
