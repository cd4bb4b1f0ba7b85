package security

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redis  *redis.Client
	perMin int64
}

func NewRateLimiter(redisClient *redis.Client, perMin int64) *RateLimiter {
	return &RateLimiter{redis: redisClient, perMin: perMin}
}

// QueueRateLimit caps queue registrations per caller per minute, keyed by
// user id when present and client IP otherwise.
func (r *RateLimiter) QueueRateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identifier := c.QueryParam("user_id")
			if identifier == "" {
				identifier = c.RealIP()
			}

			key := fmt.Sprintf("ratelimit:queue:%s", identifier)

			count, err := r.redis.Incr(context.Background(), key).Result()
			if err == nil {
				if count == 1 {
					r.redis.Expire(context.Background(), key, time.Minute)
				}
				if count > r.perMin {
					return c.JSON(429, map[string]string{
						"error": "Rate limit exceeded. Please try again later.",
					})
				}
			}

			return next(c)
		}
	}
}
