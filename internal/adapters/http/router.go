package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/dishdash/dishdash/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	rateLimit := deps.RateLimit
	if rateLimit <= 0 {
		rateLimit = 300
	}
	reqTimeout := deps.RequestTimeout
	if reqTimeout <= 0 {
		reqTimeout = 15 * time.Second
	}
	withTimeout := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, reqTimeout)
	}

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	app.Use(limiter.New(limiter.Config{
		Max:        rateLimit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/map/markers", withTimeout(MarkersHandler(deps)))
	v1.Get("/places/nearby", withTimeout(NearbyPlacesHandler(deps)))
	v1.Get("/places/search", withTimeout(SearchPlacesHandler(deps)))
	v1.Get("/places/:id", withTimeout(GetPlaceHandler(deps)))
	v1.Get("/places/:id/posts", withTimeout(PlacePostsHandler(deps)))
	v1.Post("/posts", withTimeout(CreatePostHandler(deps)))
	v1.Get("/posts/:id", withTimeout(GetPostHandler(deps)))
	v1.Get("/wishlist", withTimeout(ListWishlistHandler(deps)))
	v1.Put("/wishlist/:placeId", withTimeout(AddWishlistHandler(deps)))
	v1.Delete("/wishlist/:placeId", withTimeout(RemoveWishlistHandler(deps)))

	// The assistant may take a while; it gets its own client timeout
	v1.Post("/chat", ChatHandler(deps))

	app.Post("/graphql", withTimeout(GraphQLHandler(deps)))

	SetupDocs(app, deps.DocsPath)

	if deps.Live != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.Live)))
	}
}
