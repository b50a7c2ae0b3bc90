package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, cfg ServiceConfig) *s3Client {
	t.Helper()
	c, err := newS3Client(cfg)
	require.NoError(t, err)
	return c
}

func TestDownloadURLUsesPublicBase(t *testing.T) {
	c := newTestClient(t, ServiceConfig{
		S3BucketName:  "feed",
		S3Endpoint:    "https://s3.example.com",
		PublicBaseURL: "https://cdn.example.com/",
	})

	got := c.DownloadURL(AvatarPrefix + "Ab3dEf6hIj9kLm2n_my pic.png")
	assert.Equal(t, "https://cdn.example.com/avatars/Ab3dEf6hIj9kLm2n_my%20pic.png", got)

	key, ok := c.KeyFromURL(got)
	require.True(t, ok)
	assert.Equal(t, "avatars/Ab3dEf6hIj9kLm2n_my pic.png", key)
}

func TestDownloadURLFallsBackToPathStyle(t *testing.T) {
	c := newTestClient(t, ServiceConfig{
		S3BucketName: "feed",
		S3Endpoint:   "http://localhost:9000",
	})

	assert.Equal(t, "http://localhost:9000/feed/avatars/k_pic.png", c.DownloadURL("avatars/k_pic.png"))
}

func TestKeyFromURLRejectsForeignURLs(t *testing.T) {
	c := newTestClient(t, ServiceConfig{
		S3BucketName:  "feed",
		S3Endpoint:    "https://s3.example.com",
		PublicBaseURL: "https://cdn.example.com",
	})

	_, ok := c.KeyFromURL("https://lh3.googleusercontent.com/a/photo.jpg")
	assert.False(t, ok)

	_, ok = c.KeyFromURL("https://cdn.example.com/")
	assert.False(t, ok)

	_, ok = c.KeyFromURL("")
	assert.False(t, ok)
}
