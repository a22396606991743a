package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/apphub-org/apphub/internal/auth/limiter"
	"github.com/apphub-org/apphub/internal/common/cnst"
	"github.com/apphub-org/apphub/internal/common/config"
	"github.com/apphub-org/apphub/internal/i18n"
	"github.com/apphub-org/apphub/pkg/metrics"
)

// LoginLimit counts every attempt against the client address and answers
// 429 once the limit is exceeded. A 200 response clears the counter. Every
// response reports the limit and the attempts left in the window.
func LoginLimit(l *limiter.Limiter, m *metrics.Metrics, logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("ratelimit")
	return func(c *gin.Context) {
		key := c.ClientIP()
		d, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Header(cnst.HeaderRateLimitLimit, strconv.Itoa(l.MaxAttempts()))
		c.Header(cnst.HeaderRateLimitRemaining, strconv.Itoa(d.Remaining))
		if !d.Allowed {
			m.RateLimited()
			logger.Warn("login rate limited", zap.String("client_ip", key), zap.Duration("retry_after", d.RetryAfter))
			c.Header(cnst.HeaderRetryAfter, retryAfterSeconds(d.RetryAfter))
			_ = c.Error(i18n.ErrorLoginRateLimited)
			c.Abort()
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			if err := l.Reset(c.Request.Context(), key); err != nil {
				logger.Warn("failed to reset login limiter", zap.String("client_ip", key), zap.Error(err))
			}
		}
	}
}

func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(int(math.Ceil(d.Seconds())))
}

// idleAfter is how long a client bucket may sit unused before it is dropped
const idleAfter = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Throttle applies a token bucket per client address to every request
func Throttle(cfg config.APILimitConfig, m *metrics.Metrics) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	var (
		mu        sync.Mutex
		buckets   = make(map[string]*bucket)
		lastSweep = time.Now()
	)
	get := func(key string, now time.Time) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		if now.Sub(lastSweep) > idleAfter {
			for k, b := range buckets {
				if now.Sub(b.lastSeen) > idleAfter {
					delete(buckets, k)
				}
			}
			lastSweep = now
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{limiter: rate.NewLimiter(rate.Limit(cfg.PerSecond), cfg.Burst)}
			buckets[key] = b
		}
		b.lastSeen = now
		return b.limiter
	}

	return func(c *gin.Context) {
		now := time.Now()
		r := get(c.ClientIP(), now).ReserveN(now, 1)
		if !r.OK() {
			m.RateLimited()
			_ = c.Error(i18n.ErrTooManyRequests)
			c.Abort()
			return
		}
		if delay := r.DelayFrom(now); delay > 0 {
			r.CancelAt(now)
			m.RateLimited()
			c.Header(cnst.HeaderRetryAfter, retryAfterSeconds(delay))
			_ = c.Error(i18n.ErrTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
