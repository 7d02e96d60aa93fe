package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	loggerKey    ctxKey = "logger"
)

// RequestIDLogMiddleware copies the Fiber request ID into the user context
// together with a request-scoped *slog.Logger carrying it.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ridStr, ok := c.Locals("requestid").(string)
		if !ok || ridStr == "" {
			return c.Next()
		}

		ctx := context.WithValue(c.UserContext(), requestIDKey, ridStr)
		c.SetUserContext(ctx)
		withLogAttrs(c, "request_id", ridStr)

		return c.Next()
	}
}

// withLogAttrs extends the request-scoped logger with attrs.
func withLogAttrs(c *fiber.Ctx, attrs ...any) {
	ctx := c.UserContext()
	l := LoggerFromCtx(ctx).With(attrs...)
	c.SetUserContext(context.WithValue(ctx, loggerKey, l))
}

// LoggerFromCtx extracts the per-request slog.Logger from a context.
// Falls back to the default logger if none is set.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
