package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"taskflow/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter initializes a shared Redis client used by RateLimit.
// If addr is empty or the ping fails, redisClient stays nil and RateLimit
// falls back to the in-process limiter.
func InitRedisRateLimiter(addr, password string, db int) bool {
	if addr == "" {
		return false
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-process rate limiter", "addr", addr, "error", err)
		_ = client.Close()
		return false
	}
	redisClient = client
	return true
}

// CloseRedisRateLimiter releases the shared client, if any.
func CloseRedisRateLimiter() {
	if redisClient != nil {
		_ = redisClient.Close()
		redisClient = nil
	}
}

// RedisPing checks the shared limiter client.
func RedisPing(ctx context.Context) error {
	if redisClient == nil {
		return errors.New("redis not configured")
	}
	return redisClient.Ping(ctx).Err()
}

// RateLimit applies a fixed-window limit shared across instances through
// Redis, or a per-process token bucket when Redis is not configured.
// scope separates counters of limiters that share a window.
func RateLimit(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	local := LocalRateLimit(maxRequests, window)
	return func(c *gin.Context) {
		if redisClient == nil {
			local(c)
			return
		}
		redisRateLimit(c, scope, maxRequests, window, local)
	}
}

// key format: rl:<scope>:<window_seconds>:<identifier>
func redisRateLimit(c *gin.Context, scope string, maxRequests int, window time.Duration, fallback gin.HandlerFunc) {
	key := "rl:" + scope + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()
	ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
	defer cancel()

	val, err := redisClient.Incr(ctx, key).Result()
	if err != nil {
		c.Header("X-RateLimit-Error", "redis-error")
		fallback(c)
		return
	}
	if val == 1 {
		// first hit in this window
		redisClient.Expire(ctx, key, window)
	}

	if val > int64(maxRequests) {
		RLBlocked.WithLabelValues(c.FullPath()).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		return
	}

	RLRequests.WithLabelValues(c.FullPath()).Inc()
	c.Next()
}
