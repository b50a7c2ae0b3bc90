package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"socialfeed/internal/pkg/logx"
)

// s3Client implements StorageService on an S3-compatible endpoint.
type s3Client struct {
	cfg      ServiceConfig
	s3Client *s3.Client
	uploader *manager.Uploader
	logger   zerolog.Logger
}

// newS3Client builds a path-style client against cfg.S3Endpoint with static credentials.
func newS3Client(cfg ServiceConfig) (*s3Client, error) {
	region := cfg.S3Region
	if region == "" {
		region = "auto"
	}

	sdkCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client configuration: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		o.UsePathStyle = true
	})

	return &s3Client{
		cfg:      cfg,
		s3Client: client,
		uploader: manager.NewUploader(client),
		logger:   logx.Component("Storage"),
	}, nil
}

// Upload streams body to the bucket under key. Errors are returned as reported by
// the SDK so callers can show the storage service's own message.
func (c *s3Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.cfg.S3BucketName),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := c.uploader.Upload(ctx, input); err != nil {
		c.logger.Error().Err(err).Str("key", key).Msg("S3 upload failed")
		return err
	}

	c.logger.Debug().Str("key", key).Msg("S3 upload completed")
	return nil
}

// DownloadURL joins the public base with the escaped key segments.
func (c *s3Client) DownloadURL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return c.cfg.publicBase() + "/" + strings.Join(segments, "/")
}

// Delete removes key from the bucket. A missing object is not an error.
func (c *s3Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.cfg.S3BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NoSuchKey
		if errors.As(err, &nf) {
			return nil
		}
		c.logger.Warn().Err(err).Str("key", key).Msg("S3 delete failed")
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (c *s3Client) KeyFromURL(rawURL string) (string, bool) {
	return keyFromURL(c.cfg.publicBase(), rawURL)
}
