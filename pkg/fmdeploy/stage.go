package fmdeploy

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ArtifactStager uploads a local inference-code archive to object storage
// and returns a storage locator usable as a model-data reference.
type ArtifactStager interface {
	Stage(ctx context.Context, localPath string) (string, error)
}

// ObjectStagerConfig contains connection settings for an S3-compatible
// object store
type ObjectStagerConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

// ObjectStager stages artifacts to an S3-compatible object store
type ObjectStager struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewObjectStager creates a stager for the given object store
func NewObjectStager(cfg ObjectStagerConfig) (*ObjectStager, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("object store endpoint must not be empty")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("object store bucket must not be empty")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store client: %w", err)
	}

	return &ObjectStager{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Stage uploads the archive at localPath and returns its storage locator
func (s *ObjectStager) Stage(ctx context.Context, localPath string) (string, error) {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return "", fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return "", fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}

	objectName := path.Join(s.prefix, filepath.Base(localPath))
	_, err = s.client.FPutObject(ctx, s.bucket, objectName, localPath, minio.PutObjectOptions{
		ContentType: contentTypeFor(localPath),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", localPath, err)
	}

	return ObjectLocator(s.bucket, objectName), nil
}

// ObjectLocator formats a bucket and key as an s3:// storage locator
func ObjectLocator(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}

func contentTypeFor(localPath string) string {
	switch {
	case strings.HasSuffix(localPath, ".tar.gz"), strings.HasSuffix(localPath, ".tgz"):
		return "application/gzip"
	case strings.HasSuffix(localPath, ".tar"):
		return "application/x-tar"
	case strings.HasSuffix(localPath, ".zip"):
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}
