package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"gstbill/internal/caching"
	"gstbill/internal/common"
)

// RateLimit describes a fixed window request budget.
type RateLimit struct {
	Name   string
	Limit  int
	Window time.Duration
}

var (
	APIRateLimit    = RateLimit{Name: "api", Limit: 100, Window: 15 * time.Minute}
	AuthRateLimit   = RateLimit{Name: "auth", Limit: 5, Window: time.Hour}
	PDFRateLimit    = RateLimit{Name: "pdf", Limit: 10, Window: 5 * time.Minute}
	ExportRateLimit = RateLimit{Name: "export", Limit: 5, Window: time.Hour}
)

// RateLimiter counts requests per caller in Redis.
type RateLimiter struct {
	cache caching.CacheService
}

func NewRateLimiter(cache caching.CacheService) *RateLimiter {
	return &RateLimiter{cache: cache}
}

// Limit enforces rl per authenticated user, or per client IP before login.
// When the counter store is unavailable requests are let through.
func (r *RateLimiter) Limit(rl RateLimit) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := fmt.Sprintf("%s:ip:%s", rl.Name, c.RealIP())
			if userID, ok := common.GetUserIDFromContext(c.Request().Context()); ok {
				key = fmt.Sprintf("%s:user:%s", rl.Name, userID)
			}

			limited, err := r.cache.IsRateLimited(c.Request().Context(), key, rl.Limit, rl.Window)
			if err != nil {
				log.Warn().Err(err).Str("limit", rl.Name).Msg("rate limiter unavailable")
				return next(c)
			}
			if limited {
				c.Response().Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.Window.Seconds())))
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later")
			}
			return next(c)
		}
	}
}
