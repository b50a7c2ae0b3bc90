/*
Package storage stores user-uploaded blobs (avatars) in an S3-compatible bucket and
resolves their public URLs.
*/
package storage

import (
	"context"
	"io"
	"net/url"
	"strings"
)

// AvatarPrefix is the logical bucket path every avatar is stored under.
const AvatarPrefix = "avatars/"

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// PublicBaseURL is the CDN or public bucket origin objects are served from.
	// When empty, path-style URLs on S3Endpoint are used.
	PublicBaseURL string
}

// StorageService is the blob store used by the profile flows.
type StorageService interface {
	// Upload stores body under key.
	Upload(ctx context.Context, key string, body io.Reader, contentType string) error

	// DownloadURL returns the durable public URL of key.
	DownloadURL(key string) string

	// Delete removes the object stored under key.
	Delete(ctx context.Context, key string) error

	// KeyFromURL reverses DownloadURL. It reports false for URLs this store did not
	// issue, such as avatars supplied by an external sign-in provider.
	KeyFromURL(url string) (string, bool)
}

// NewStorageService returns the S3-backed StorageService for cfg.
func NewStorageService(cfg ServiceConfig) (StorageService, error) {
	return newS3Client(cfg)
}

// publicBase returns the URL prefix objects are reachable under, without trailing slash.
func (cfg ServiceConfig) publicBase() string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	return strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3BucketName
}

func keyFromURL(base, rawURL string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/"
	if base == "" || !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}

	key, err := url.PathUnescape(strings.TrimPrefix(rawURL, prefix))
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}
