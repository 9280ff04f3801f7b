package minio

import (
	"context"
	"fmt"
	"io"
	"time"

	"remark-go/internal/config"
	"remark-go/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

var client *minio.Client

// Init connects to MinIO and makes sure the avatar bucket exists and is
// publicly readable.
func Init(cfg *config.MinIOConfig) error {
	c, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bucket := cfg.AvatarBucket
	exists, err := c.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := c.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
		logger.Info("Avatar bucket created", zap.String("bucket", bucket))
	}
	if err := c.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
		return fmt.Errorf("set public policy on %s: %w", bucket, err)
	}
	client = c

	logger.Info("MinIO connected",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("avatar_bucket", bucket),
	)

	return nil
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}

// UploadFile stores reader under objectName and returns objectName.
func UploadFile(ctx context.Context, bucket, objectName string, reader io.Reader, fileSize int64, contentType string) (string, error) {
	if client == nil {
		return "", fmt.Errorf("minio client not initialized")
	}
	// object names are unique per upload, so browsers may cache them forever
	_, err := client.PutObject(ctx, bucket, objectName, reader, fileSize, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, objectName, err)
	}
	return objectName, nil
}

// GetPublicURL builds the URL of an object in a public-read bucket.
func GetPublicURL(endpoint string, useSSL bool, bucket, objectName string) string {
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, endpoint, bucket, objectName)
}

// AvatarStore puts avatars into the configured bucket.
type AvatarStore struct {
	cfg config.MinIOConfig
}

func NewAvatarStore(cfg config.MinIOConfig) *AvatarStore {
	return &AvatarStore{cfg: cfg}
}

func (s *AvatarStore) PutAvatar(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	name, err := UploadFile(ctx, s.cfg.AvatarBucket, objectName, r, size, contentType)
	if err != nil {
		return "", err
	}
	return GetPublicURL(s.publicEndpoint(), s.cfg.UseSSL, s.cfg.AvatarBucket, name), nil
}

func (s *AvatarStore) publicEndpoint() string {
	if s.cfg.PublicEndpoint != "" {
		return s.cfg.PublicEndpoint
	}
	return s.cfg.Endpoint
}
