package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMinIOConfig(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "localhost:9000")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("MINIO_BUCKET", "")
	t.Setenv("MINIO_PREFIX", "")
	t.Setenv("MINIO_PRESIGN_EXPIRY", "")

	cfg, err := LoadMinIOConfig()
	require.NoError(t, err)
	require.Equal(t, "localhost:9000", cfg.Endpoint)
	require.True(t, cfg.UseSSL)
	require.Equal(t, "prospectbingo", cfg.Bucket)
	require.Equal(t, "snapshots", cfg.KeyPrefix)
	require.Zero(t, cfg.PresignExpiry)
}

func TestLoadMinIOConfig_SchemeAndSnapshotSettings(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "https://s3.example.com/")
	t.Setenv("MINIO_USE_SSL", "")
	t.Setenv("MINIO_PREFIX", "/exports/bingo/")
	t.Setenv("MINIO_PRESIGN_EXPIRY", "15m")
	t.Setenv("MINIO_REGION", "eu-central-1")

	cfg, err := LoadMinIOConfig()
	require.NoError(t, err)
	require.Equal(t, "s3.example.com", cfg.Endpoint)
	require.True(t, cfg.UseSSL)
	require.Equal(t, "eu-central-1", cfg.Region)
	require.Equal(t, 15*time.Minute, cfg.PresignExpiry)

	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("CEST", 2*3600))
	require.Equal(t, "exports/bingo/20240506T050809Z", cfg.SnapshotPrefix(at))

	cfg.KeyPrefix = ""
	require.Equal(t, "20240506T050809Z", cfg.SnapshotPrefix(at))
}

func TestLoadMinIOConfig_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"ssl flag", "MINIO_USE_SSL", "maybe"},
		{"expiry syntax", "MINIO_PRESIGN_EXPIRY", "soon"},
		{"expiry too long", "MINIO_PRESIGN_EXPIRY", "200h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MINIO_USE_SSL", "")
			t.Setenv("MINIO_PRESIGN_EXPIRY", "")
			t.Setenv(tt.key, tt.value)
			_, err := LoadMinIOConfig()
			require.Error(t, err)
		})
	}
}

func TestNewMinIOStorage_NotConfigured(t *testing.T) {
	_, err := NewMinIOStorage(context.Background(), nil)
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewMinIOStorage(context.Background(), &MinIOConfig{Bucket: "b"})
	require.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewMinIOStorage(context.Background(), &MinIOConfig{Endpoint: "localhost:9000"})
	require.Error(t, err)
}
