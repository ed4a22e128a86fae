package storage

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/noah-isme/vehicle-data-api/pkg/config"
)

// MinIOStorage archives files as objects in a bucket.
type MinIOStorage struct {
	client *minio.Client
	bucket string
	remove func(string) error
}

// NewMinIOStorage connects to the object store and makes sure the bucket exists.
func NewMinIOStorage(ctx context.Context, cfg config.MinIOConfig) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check archive bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create archive bucket: %w", err)
		}
	}

	return &MinIOStorage{client: client, bucket: cfg.Bucket, remove: os.Remove}, nil
}

// Archive uploads srcPath under name and removes the local copy once stored.
func (s *MinIOStorage) Archive(ctx context.Context, srcPath, name string) (string, error) {
	opts := minio.PutObjectOptions{ContentType: contentType(name)}
	if _, err := s.client.FPutObject(ctx, s.bucket, name, srcPath, opts); err != nil {
		return "", fmt.Errorf("upload archive object: %w", err)
	}
	location := s.bucket + "/" + name
	if err := s.remove(srcPath); err != nil {
		return location, fmt.Errorf("remove archived source: %w", err)
	}
	return location, nil
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
