package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/prospectbingo/bingo/backend/go-services/pkg/metrics"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory"))

	r := gin.New()
	r.Use(RateLimitMiddleware(10, 2))
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ok", nil))
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest("GET", "/ok", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, http.StatusOK, w2.Code)
	require.Equal(t, before+2, testutil.ToFloat64(metrics.RateLimitAllowed.WithLabelValues("memory")))
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	before := testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("memory"))

	r := gin.New()
	r.Use(RateLimitMiddleware(0.5, 1))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest("GET", "/limited", nil))
	require.Equal(t, http.StatusOK, w1.Code)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest("GET", "/limited", nil))
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
	require.Equal(t, "1", w2.Header().Get("Retry-After"))
	require.Equal(t, before+1, testutil.ToFloat64(metrics.RateLimitRejected.WithLabelValues("memory")))

	// one token is back after 2s at 0.5 rps
	time.Sleep(2100 * time.Millisecond)
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, httptest.NewRequest("GET", "/limited", nil))
	require.Equal(t, http.StatusOK, w3.Code)
}

func TestRateLimitMiddleware_SeparatesKeys(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddlewareWithKey(0.1, 1, func(c *gin.Context) string {
		return c.GetHeader("X-Prospect")
	}))
	r.GET("/u", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	send := func(key string) int {
		req := httptest.NewRequest("GET", "/u", nil)
		req.Header.Set("X-Prospect", key)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusOK, send("a"))
	require.Equal(t, http.StatusTooManyRequests, send("a"))
	require.Equal(t, http.StatusOK, send("b"))
}

func TestLimiterStore_SweepsIdleKeys(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newLimiterStore(1, 5)
	s.now = func() time.Time { return clock }
	s.lastSweep.Store(clock.UnixNano())

	for i := 0; i < 100; i++ {
		s.get(fmt.Sprintf("ip:10.0.0.%d", i))
	}
	require.Equal(t, 100, s.size())

	// an active key survives the sweep
	clock = clock.Add(limiterIdleTTL / 2)
	s.get("ip:active")
	clock = clock.Add(limiterIdleTTL/2 + time.Second)
	s.get("ip:active")

	require.Equal(t, 1, s.size())
}

func TestLimiterStore_KeepsKeysWithoutRefill(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newLimiterStore(0, 1)
	s.now = func() time.Time { return clock }

	require.True(t, s.get("ip:a").Allow())
	clock = clock.Add(24 * time.Hour)
	require.False(t, s.get("ip:a").Allow(), "a spent bucket that never refills must not be reset")
}
