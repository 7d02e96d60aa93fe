package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"
	"github.com/lucsky/cuid"

	"github.com/communityeye/communityeye/internal/pkg/metrics"
)

const (
	readTimeout   = 15 * time.Second
	ingestTimeout = 60 * time.Second
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(recover.New())

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, x-access-token",
	}))

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	app.Use(requestid.New(requestid.Config{Generator: cuid.New}))

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
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

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	auth := AuthMiddleware(deps.Auth.Secret)

	v1 := app.Group("/v1")
	v1.Get("/authorities", timeout.NewWithContext(ListAuthoritiesHandler(deps), readTimeout))
	v1.Get("/categories", ListCategoriesHandler(deps))

	v1.Get("/reports", auth, timeout.NewWithContext(ListReportsHandler(deps), readTimeout))
	v1.Post("/reports", auth, timeout.NewWithContext(CreateReportHandler(deps), ingestTimeout))
	v1.Get("/reports/user/:userID", auth, timeout.NewWithContext(ListUserReportsHandler(deps), readTimeout))
	v1.Get("/reports/:id", auth, timeout.NewWithContext(GetReportHandler(deps), readTimeout))
	v1.Post("/reports/:id/upvote", auth, timeout.NewWithContext(UpvoteReportHandler(deps), readTimeout))
	v1.Delete("/reports/:id", auth, timeout.NewWithContext(DeleteReportHandler(deps), ingestTimeout))

	resolve := timeout.NewWithContext(ResolveReportHandler(deps), readTimeout)
	if deps.Auth.ProtectResolve {
		v1.Post("/reports/:id/resolve", auth, resolve)
	} else {
		v1.Post("/reports/:id/resolve", resolve)
	}

	// GraphQL
	app.Post("/graphql", auth, GraphQLHandler(deps))

	// API documentation (Swagger UI)
	docsPath := deps.DocsPath
	if docsPath == "" {
		docsPath = "api/openapi.yaml"
	}
	SetupDocs(app, docsPath)

	// WebSocket
	if deps.NATS != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
}
