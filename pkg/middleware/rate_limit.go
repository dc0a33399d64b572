package middleware

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prospectbingo/bingo/backend/go-services/pkg/metrics"
	"golang.org/x/time/rate"
)

// KeyFunc selects the rate limit bucket for a request.
type KeyFunc func(c *gin.Context) string

// ClientIPKey buckets requests by client IP.
func ClientIPKey(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

const (
	limiterIdleTTL    = 10 * time.Minute
	limiterSweepEvery = time.Minute
)

type limiterEntry struct {
	lim  *rate.Limiter
	seen atomic.Int64 // unix nanos of the last request
}

// limiterStore holds one token bucket per key. Keys idle for longer than
// idleTTL are swept at most once per limiterSweepEvery; idleTTL is never
// shorter than a full refill.
type limiterStore struct {
	m         sync.Map // map[string]*limiterEntry
	rps       float64
	burst     int
	idleTTL   time.Duration
	now       func() time.Time
	lastSweep atomic.Int64
}

func newLimiterStore(rps float64, burst int) *limiterStore {
	s := &limiterStore{rps: rps, burst: burst, now: time.Now}
	if rps > 0 {
		s.idleTTL = limiterIdleTTL
		if full := time.Duration(float64(burst) / rps * float64(time.Second)); full > s.idleTTL {
			s.idleTTL = full
		}
	}
	s.lastSweep.Store(s.now().UnixNano())
	return s
}

func (s *limiterStore) get(key string) *rate.Limiter {
	now := s.now()
	s.sweep(now)
	v, ok := s.m.Load(key)
	if !ok {
		v, _ = s.m.LoadOrStore(key, &limiterEntry{lim: rate.NewLimiter(rate.Limit(s.rps), s.burst)})
	}
	e := v.(*limiterEntry)
	e.seen.Store(now.UnixNano())
	return e.lim
}

// sweep drops idle keys. With rps <= 0 buckets never refill, so nothing is
// dropped.
func (s *limiterStore) sweep(now time.Time) {
	if s.idleTTL <= 0 {
		return
	}
	last := s.lastSweep.Load()
	if now.UnixNano()-last < int64(limiterSweepEvery) || !s.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-s.idleTTL).UnixNano()
	s.m.Range(func(k, v any) bool {
		if v.(*limiterEntry).seen.Load() < cutoff {
			s.m.CompareAndDelete(k, v)
		}
		return true
	})
}

func (s *limiterStore) size() int {
	n := 0
	s.m.Range(func(any, any) bool { n++; return true })
	return n
}

// RateLimitMiddleware returns a Gin middleware enforcing a token-bucket limit
// per client IP. rps = allowed events per second, burst = maximum tokens in
// bucket.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	return RateLimitMiddlewareWithKey(rps, burst, ClientIPKey)
}

func RateLimitMiddlewareWithKey(rps float64, burst int, key KeyFunc) gin.HandlerFunc {
	store := newLimiterStore(rps, burst)
	return func(c *gin.Context) {
		if !store.get(key(c)).Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
