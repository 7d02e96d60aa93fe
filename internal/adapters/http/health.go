package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	version := buildVersion()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": version,
		})
	}
}

func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}

// probe is one readiness dependency. A nil check reports absent instead of
// running; absent dependencies never fail readiness.
type probe struct {
	name   string
	absent string
	check  func(ctx context.Context) error
}

func readinessProbes(deps *Dependencies) []probe {
	probes := []probe{
		{name: "database", absent: "in-memory"},
		{name: "nats", absent: "not configured"},
		{name: "cache", absent: "not configured"},
	}
	if deps.Store != nil {
		probes[0].check = deps.Store.Ping
	}
	if deps.NATS != nil {
		nc := deps.NATS
		probes[1].check = func(context.Context) error {
			if !nc.IsConnected() {
				return errDisconnected
			}
			return nil
		}
	}
	if deps.Cache != nil {
		probes[2].check = deps.Cache.Ping
	}
	return probes
}

type readinessError string

func (e readinessError) Error() string { return string(e) }

const errDisconnected = readinessError("disconnected")

// ReadyHandler checks store, NATS and cache connectivity. Any configured
// dependency that fails turns the response into a 503.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	probes := readinessProbes(deps)

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		checks := make(map[string]string, len(probes))
		ready := true
		for _, p := range probes {
			if p.check == nil {
				checks[p.name] = p.absent
				continue
			}
			if err := p.check(ctx); err != nil {
				checks[p.name] = "error: " + err.Error()
				ready = false
				LoggerFromCtx(c.UserContext()).Warn("readiness check failed", "dependency", p.name, "error", err)
				continue
			}
			checks[p.name] = "ok"
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not ready",
				"checks": checks,
			})
		}
		return c.JSON(fiber.Map{
			"status": "ready",
			"checks": checks,
		})
	}
}
