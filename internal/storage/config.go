package storage

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MinIOConfig describes the snapshot bucket. Endpoint may carry an http:// or
// https:// scheme, which then decides UseSSL.
type MinIOConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Region        string
	UseSSL        bool
	Bucket        string
	KeyPrefix     string
	PresignExpiry time.Duration
}

// LoadMinIOConfig reads MINIO_* variables.
func LoadMinIOConfig() (*MinIOConfig, error) {
	cfg := &MinIOConfig{
		Endpoint:  os.Getenv("MINIO_ENDPOINT"),
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		Region:    os.Getenv("MINIO_REGION"),
		Bucket:    getEnv("MINIO_BUCKET", "prospectbingo"),
		KeyPrefix: strings.Trim(getEnv("MINIO_PREFIX", "snapshots"), "/"),
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("MINIO_USE_SSL: %w", err)
		}
		cfg.UseSSL = b
	}
	if v := os.Getenv("MINIO_PRESIGN_EXPIRY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("MINIO_PRESIGN_EXPIRY: %w", err)
		}
		// presigned URLs are capped at 7 days by S3
		if d < 0 || d > 7*24*time.Hour {
			return nil, fmt.Errorf("MINIO_PRESIGN_EXPIRY %s out of range", d)
		}
		cfg.PresignExpiry = d
	}
	switch {
	case strings.HasPrefix(cfg.Endpoint, "https://"):
		cfg.Endpoint, cfg.UseSSL = strings.TrimPrefix(cfg.Endpoint, "https://"), true
	case strings.HasPrefix(cfg.Endpoint, "http://"):
		cfg.Endpoint, cfg.UseSSL = strings.TrimPrefix(cfg.Endpoint, "http://"), false
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return cfg, nil
}

// SnapshotPrefix is the object key prefix for a snapshot taken at t.
func (c *MinIOConfig) SnapshotPrefix(t time.Time) string {
	ts := t.UTC().Format("20060102T150405Z")
	if c.KeyPrefix == "" {
		return ts
	}
	return c.KeyPrefix + "/" + ts
}

func getEnv(k, d string) string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	return v
}
