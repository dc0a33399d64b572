package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnectMongoWithRetry_BadURI(t *testing.T) {
	start := time.Now()
	_, err := ConnectMongoWithRetry(context.Background(), "not-a-mongo-uri", time.Second, 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "after 1 attempts")
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestConnectMongoWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ConnectMongoWithRetry(ctx, "not-a-mongo-uri", time.Second, 5)
	require.ErrorIs(t, err, context.Canceled)
}
