package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	// BaseURL replaces the PO.DAAC OPeNDAP root, e.g. to read from a mirror.
	BaseURL        string
	OutputDir      string
	HTTPTimeout    time.Duration
	ResponseSuffix string
	LogLevel       string

	// Archiving is enabled when MinIOEndpoint is set.
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
}

// ArchiveEnabled reports whether finished outputs should be uploaded.
func (c *Config) ArchiveEnabled() bool {
	return c.MinIOEndpoint != ""
}

type ErrMissingRequiredEnvVar struct {
	Name string
}

func (e *ErrMissingRequiredEnvVar) Error() string {
	return fmt.Sprintf("required environment variable %q is not set", e.Name)
}

type ErrInvalidEnvVar struct {
	Name  string
	Value string
	Err   error
}

func (e *ErrInvalidEnvVar) Error() string {
	return fmt.Sprintf("environment variable %q has invalid value %q: %v", e.Name, e.Value, e.Err)
}

func (e *ErrInvalidEnvVar) Unwrap() error { return e.Err }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads configuration from environment variables.
// Every variable has a default except the MinIO credentials, which are
// required once MINIO_ENDPOINT is set.
func Load() (*Config, error) {
	config := Config{
		BaseURL:        os.Getenv("SST_BASE_URL"),
		OutputDir:      getEnv("SST_OUTPUT_DIR", "."),
		ResponseSuffix: getEnv("SST_RESPONSE_SUFFIX", ".nc"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	timeout := getEnv("SST_HTTP_TIMEOUT", "60s")
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return nil, &ErrInvalidEnvVar{Name: "SST_HTTP_TIMEOUT", Value: timeout, Err: err}
	}
	config.HTTPTimeout = d

	config.MinIOEndpoint = os.Getenv("MINIO_ENDPOINT")
	if !config.ArchiveEnabled() {
		return &config, nil
	}

	config.MinIOAccessKey = os.Getenv("MINIO_ACCESS_KEY")
	if config.MinIOAccessKey == "" {
		return nil, &ErrMissingRequiredEnvVar{Name: "MINIO_ACCESS_KEY"}
	}
	config.MinIOSecretKey = os.Getenv("MINIO_SECRET_KEY")
	if config.MinIOSecretKey == "" {
		return nil, &ErrMissingRequiredEnvVar{Name: "MINIO_SECRET_KEY"}
	}
	config.MinIOBucket = os.Getenv("MINIO_BUCKET")
	if config.MinIOBucket == "" {
		return nil, &ErrMissingRequiredEnvVar{Name: "MINIO_BUCKET"}
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		useSSL, err := strconv.ParseBool(v)
		if err != nil {
			return nil, &ErrInvalidEnvVar{Name: "MINIO_USE_SSL", Value: v, Err: err}
		}
		config.MinIOUseSSL = useSSL
	}

	return &config, nil
}
