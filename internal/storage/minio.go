package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrArchive is matched by every failure to reach or write the archive bucket.
var ErrArchive = errors.New("storage: archive output")

const csvContentType = "text/csv"

// Archive keeps a copy of finished CSV files in an S3-compatible bucket.
type Archive struct {
	client *minio.Client
	bucket string
}

// ArchiveConfig locates the archive bucket.
type ArchiveConfig struct {
	Endpoint  string // host:port, no scheme
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewArchive connects to the archive endpoint and creates the bucket if it
// does not exist yet.
func NewArchive(ctx context.Context, cfg ArchiveConfig) (*Archive, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: endpoint %q: %w", ErrArchive, cfg.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: look up archive bucket %q: %w", ErrArchive, cfg.Bucket, err)
	}
	if !exists {
		slog.InfoContext(ctx, "creating archive bucket", "bucket", cfg.Bucket)
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%w: create archive bucket %q: %w", ErrArchive, cfg.Bucket, err)
		}
	}

	return &Archive{client: client, bucket: cfg.Bucket}, nil
}

// PutFile uploads the CSV at path under key.
func (a *Archive) PutFile(ctx context.Context, key, path string) error {
	info, err := a.client.FPutObject(ctx, a.bucket, key, path, minio.PutObjectOptions{
		ContentType: csvContentType,
	})
	if err != nil {
		return fmt.Errorf("%w: %s as %s/%s: %w", ErrArchive, path, a.bucket, key, err)
	}

	slog.InfoContext(ctx, "output archived", "bucket", a.bucket, "key", key, "size", info.Size)
	return nil
}
