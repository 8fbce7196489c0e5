package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/aqtracker/internal/pkg/metrics"
)

// Per-request deadlines. Analyses sample five cities against the raster
// store; materialisation renders the whole region.
const (
	catalogTimeout  = 5 * time.Second
	analysisTimeout = 60 * time.Second
	rasterTimeout   = 120 * time.Second
	exportTimeout   = 30 * time.Second
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		Next: func(c *fiber.Ctx) bool {
			// WebSocket sessions rate-limit themselves by superseding.
			return c.Path() == "/ws"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, 429, "rate_limited", "too many requests, please try again later")
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
	v1.Get("/pollutants", timeout.NewWithContext(ListPollutantsHandler(deps), catalogTimeout))
	v1.Get("/pollutants/:id", timeout.NewWithContext(GetPollutantHandler(deps), catalogTimeout))
	v1.Get("/locations", timeout.NewWithContext(ListLocationsHandler(deps), catalogTimeout))
	v1.Get("/region", timeout.NewWithContext(RegionHandler(deps), catalogTimeout))
	v1.Get("/analysis", timeout.NewWithContext(AnalysisHandler(deps), analysisTimeout))
	v1.Get("/analysis/raster", timeout.NewWithContext(RasterHandler(deps), rasterTimeout))
	v1.Post("/exports", timeout.NewWithContext(CreateExportHandler(deps), exportTimeout))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}
