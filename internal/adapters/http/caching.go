package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses that the handler left
// without one.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if c.GetRespHeader(fiber.HeaderCacheControl) != "" {
			return err
		}
		if ttl := cacheControlFor(c.Path()); ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}
		return err
	}
}

func cacheControlFor(path string) string {
	switch {
	case path == "/v1/health" || path == "/v1/ready":
		return "public, max-age=10"
	case path == "/metrics":
		return "no-cache"
	case strings.HasPrefix(path, "/v1/wishlist"):
		return "private, no-store" // per user
	case path == "/v1/map/markers":
		return "public, max-age=30" // new posts show up quickly
	case path == "/v1/places/nearby" || path == "/v1/places/search":
		return "public, max-age=300"
	case strings.HasSuffix(path, "/posts"):
		return "public, max-age=60"
	case strings.HasPrefix(path, "/v1/places/") || strings.HasPrefix(path, "/v1/posts/"):
		return "public, max-age=600"
	case strings.HasPrefix(path, "/v1/"):
		return "public, max-age=300"
	}
	return ""
}
