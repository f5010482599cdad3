package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"task_tracker/internal/apierror"

	"github.com/gin-gonic/gin"
)

// Limiter counts requests per key in fixed windows.
type Limiter interface {
	// Hit records one request for key and returns the count in the current
	// window, including this one.
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit blocks clients that send more than maxRequests per window. Limiter
// errors let the request through.
func RateLimit(l Limiter, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()

		val, err := l.Hit(c.Request.Context(), key, window)
		if err != nil {
			c.Header("X-RateLimit-Error", "limiter-error")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

		if val > int64(maxRequests) {
			RLBlocked.WithLabelValues(routeLabel(c)).Inc()
			_ = c.Error(apierror.RateLimited(int(window.Seconds())))
			c.Abort()
			return
		}

		RLRequests.WithLabelValues(routeLabel(c)).Inc()
		c.Next()
	}
}

type clientInfo struct {
	start time.Time
	count int64
}

// MemoryLimiter is the in-process Limiter used when Redis is not configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{clients: make(map[string]*clientInfo), now: time.Now}
}

func (m *MemoryLimiter) Hit(_ context.Context, key string, window time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	ci, ok := m.clients[key]
	if !ok || now.Sub(ci.start) > window {
		m.clients[key] = &clientInfo{start: now, count: 1}
		m.sweep(now, window)
		return 1, nil
	}
	ci.count++
	return ci.count, nil
}

// sweep drops windows that have expired so the map does not grow unbounded.
func (m *MemoryLimiter) sweep(now time.Time, window time.Duration) {
	for k, ci := range m.clients {
		if now.Sub(ci.start) > window {
			delete(m.clients, k)
		}
	}
}
