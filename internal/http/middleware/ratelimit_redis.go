package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"clicker_empire/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter initializes a shared Redis client used by the middleware.
// Provide addr (host:port), password and db index. If connection fails, redisClient remains nil
// and the middleware falls back to an in-process limiter.
func InitRedisRateLimiter(addr, password string, db int) {
	if addr == "" {
		return
	}
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-process rate limiter", "addr", addr, "error", err)
		_ = client.Close()
		return
	}
	redisClient = client
	logger.Info("redis rate limiter enabled", "addr", addr)
}

// RedisPing reports whether Redis is configured and, if so, whether it answers.
func RedisPing(ctx context.Context) (bool, error) {
	if redisClient == nil {
		return false, nil
	}
	return true, redisClient.Ping(ctx).Err()
}

// allowRedis is a fixed-window counter using INCR/EXPIRE.
// ok is false when Redis failed and the caller should fall back.
func allowRedis(ctx context.Context, key string, maxRequests int, window time.Duration) (allowed, ok bool) {
	val, err := redisClient.Incr(ctx, key).Result()
	if err != nil {
		return false, false
	}
	if val == 1 {
		redisClient.Expire(ctx, key, window)
	}
	return val <= int64(maxRequests), true
}

func limit(keyPrefix string, maxRequests int, window time.Duration, ident func(*gin.Context) (string, bool)) gin.HandlerFunc {
	local := NewLocalLimiter(maxRequests, window)
	windowSecs := strconv.FormatInt(int64(window.Seconds()), 10)

	return func(c *gin.Context) {
		id, ok := ident(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		endpoint := keyPrefix + ":" + c.FullPath()

		allowed := false
		handled := false
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 200*time.Millisecond)
			allowed, handled = allowRedis(ctx, keyPrefix+":"+windowSecs+":"+id, maxRequests, window)
			cancel()
			if !handled {
				c.Header("X-RateLimit-Error", "redis-error")
			}
		}
		if !handled {
			allowed = local.Allow(id)
		}

		if !allowed {
			RLBlocked.WithLabelValues(endpoint).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": int(window.Seconds()),
			})
			return
		}

		RLRequests.WithLabelValues(endpoint).Inc()
		c.Next()
	}
}

// RedisRateLimit limits requests per client IP.
func RedisRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return limit("rl", maxRequests, window, func(c *gin.Context) (string, bool) {
		return c.ClientIP(), true
	})
}

// TapRateLimit limits requests per player. Requires JWT middleware to run before this.
func TapRateLimit(maxTaps int, window time.Duration) gin.HandlerFunc {
	return limit("tap_rl", maxTaps, window, func(c *gin.Context) (string, bool) {
		userID, ok := c.Get("user_id")
		if !ok {
			return "", false
		}
		id, ok := userID.(int64)
		if !ok {
			return "", false
		}
		return strconv.FormatInt(id, 10), true
	})
}
