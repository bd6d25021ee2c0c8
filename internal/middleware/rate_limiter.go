package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"refrigas/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// WindowCounter counts hits for a key within a fixed window.
type WindowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// ── Redis counter ─────────────────────────────────────────────────────────────

// RedisCounter shares the window across every replica behind the balancer.
type RedisCounter struct {
	rdb *redis.Client
}

func NewRedisCounter(rdb *redis.Client) *RedisCounter { return &RedisCounter{rdb: rdb} }

func (r *RedisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// ── Limiter ───────────────────────────────────────────────────────────────────

// RateLimiter allows limit requests per window per client IP. If the counter
// is unreachable the request goes through.
func RateLimiter(counter WindowCounter, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		slot := time.Now().UnixNano() / int64(window)
		key := fmt.Sprintf("ratelimit:%s:%s:%d", scope, c.ClientIP(), slot)

		n, err := counter.Hit(c.Request.Context(), key, window)
		if err != nil {
			log.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
			c.Next()
			return
		}
		if n > int64(limit) {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Demasiadas solicitudes. Intente nuevamente en un momento."))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter(counter WindowCounter) gin.HandlerFunc {
	return RateLimiter(counter, "login", 20, time.Minute)
}
