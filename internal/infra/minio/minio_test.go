package minio

import (
	"context"
	"strings"
	"testing"

	"remark-go/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestGetPublicURL(t *testing.T) {
	assert.Equal(t, "http://localhost:9000/avatars/1/a.png", GetPublicURL("localhost:9000", false, "avatars", "1/a.png"))
	assert.Equal(t, "https://cdn.example/avatars/1/a.png", GetPublicURL("cdn.example", true, "avatars", "1/a.png"))
}

func TestAvatarStore_PublicEndpoint(t *testing.T) {
	s := NewAvatarStore(config.MinIOConfig{Endpoint: "minio:9000"})
	assert.Equal(t, "minio:9000", s.publicEndpoint())

	s = NewAvatarStore(config.MinIOConfig{Endpoint: "minio:9000", PublicEndpoint: "localhost:9000"})
	assert.Equal(t, "localhost:9000", s.publicEndpoint())
}

func TestPublicReadPolicy(t *testing.T) {
	p := publicReadPolicy("avatars")
	assert.Contains(t, p, `"arn:aws:s3:::avatars/*"`)
	assert.Contains(t, p, `"s3:GetObject"`)
}

func TestPutAvatarWithoutClient(t *testing.T) {
	client = nil
	_, err := NewAvatarStore(config.MinIOConfig{AvatarBucket: "avatars"}).
		PutAvatar(context.Background(), "1/a.png", strings.NewReader("x"), 1, "image/png")
	assert.ErrorContains(t, err, "not initialized")
}
