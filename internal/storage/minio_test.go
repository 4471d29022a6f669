package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
)

func TestNewArchive_Unreachable(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
	}{
		{"malformed endpoint", "archive:9000:extra"},
		{"nothing listening", "localhost:12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_, err := NewArchive(ctx, ArchiveConfig{
				Endpoint:  tt.endpoint,
				AccessKey: "sst",
				SecretKey: "sst-secret",
				Bucket:    "sst-archive",
			})
			if !errors.Is(err, ErrArchive) {
				t.Fatalf("expected ErrArchive, got %v", err)
			}
		})
	}
}

// archiveConfigFromEnv skips the test unless an archive endpoint is configured.
func archiveConfigFromEnv(t *testing.T) ArchiveConfig {
	t.Helper()
	_ = godotenv.Load("../../.env.test")

	cfg := ArchiveConfig{
		Endpoint:  os.Getenv("MINIO_ENDPOINT"),
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		Bucket:    "sst-archive-test-" + time.Now().Format("20060102-150405"),
	}
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		t.Skip("archive endpoint not configured (MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY)")
	}
	return cfg
}

func TestArchive_PutFile_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	cfg := archiveConfigFromEnv(t)

	ctx := context.Background()
	archive, err := NewArchive(ctx, cfg)
	if err != nil {
		t.Fatalf("NewArchive() error = %v", err)
	}

	content := "year,month,day,latitude,longitude,analysed_sst\n2020,1,1,42.575,141.675,17.00\n"
	path := filepath.Join(t.TempDir(), "gpb_from_20200101_to_20200101_at_42.575N_141.675E.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	key := ObjectKey{
		Source:    "podaac",
		Dataset:   "gpb",
		Start:     "2020-01-01",
		End:       "2020-01-01",
		RunID:     "01890c24-905b-7122-b170-b60814e6ee06",
		Extension: "csv",
	}.Key()
	if err := archive.PutFile(ctx, key, path); err != nil {
		t.Fatalf("PutFile() error = %v", err)
	}

	obj, err := archive.client.GetObject(ctx, cfg.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		t.Fatalf("GetObject() error = %v", err)
	}
	defer obj.Close()

	got, err := io.ReadAll(obj)
	if err != nil {
		t.Fatalf("reading archived object: %v", err)
	}
	if string(got) != content {
		t.Errorf("archived content = %q, want %q", got, content)
	}

	if err := archive.PutFile(ctx, key, filepath.Join(t.TempDir(), "missing.csv")); !errors.Is(err, ErrArchive) {
		t.Errorf("expected ErrArchive for a missing local file, got %v", err)
	}
}
