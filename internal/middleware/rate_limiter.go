package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimiter throttles the write actions it guards (likes, comments,
// uploads, login callbacks) to perMinute requests with bursts of burst.
// Logged-in viewers are counted per account so switching networks does not
// reset their budget; everyone else is counted per client IP.
func RateLimiter(perMinute, burst int) echo.MiddlewareFunc {
	retryAfter := strconv.Itoa(int((time.Minute / time.Duration(max(perMinute, 1))).Seconds()) + 1)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(perMinute) / 60),
			Burst:     burst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: rateKey,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			FromContext(c.Request().Context()).Warn("Rate limit hit", "key", identifier, "path", c.Path())
			c.Response().Header().Set("Retry-After", retryAfter)
			return c.String(http.StatusTooManyRequests, "Too many requests. Please try again later.")
		},
	})
}

func rateKey(c echo.Context) (string, error) {
	if store := SessionFrom(c); store != nil {
		if p := store.Profile(); p != nil {
			return "user:" + strconv.FormatInt(p.ID, 10), nil
		}
	}
	return "ip:" + c.RealIP(), nil
}
