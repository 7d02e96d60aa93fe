package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/communityeye/communityeye/internal/adapters/geojson"
	"github.com/communityeye/communityeye/internal/adapters/http"
	"github.com/communityeye/communityeye/internal/adapters/mail"
	natsadapter "github.com/communityeye/communityeye/internal/adapters/nats"
	"github.com/communityeye/communityeye/internal/adapters/valkey"
	"github.com/communityeye/communityeye/internal/bootstrap"
	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/core/ports"
	"github.com/communityeye/communityeye/internal/core/usecases"
	"github.com/communityeye/communityeye/internal/pkg/config"
	"github.com/communityeye/communityeye/internal/pkg/imaging"
	"github.com/communityeye/communityeye/internal/pkg/logging"
	"github.com/communityeye/communityeye/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("communityeye-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer func() {
				sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer scancel()
				_ = shutdown(sctx)
			}()
		}
	}

	// Stores
	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer stores.Close()

	if stores.Postgres != nil {
		go stores.Postgres.ReportPoolStats(ctx, 15*time.Second)
	}

	blobs, err := bootstrap.OpenBlobStore(cfg)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// Boundary. A failed load is not fatal; every location is rejected.
	boundary := geojson.NewBoundary(cfg.Boundary.Path)
	_ = boundary.Load()

	// Authority catalogue
	authorities := usecases.NewAuthorityService(stores.Authorities)
	if cfg.Storage.Driver == config.DriverMemory && cfg.Boundary.AuthoritiesPath != "" {
		seedAuthorities(ctx, authorities, cfg.Boundary.AuthoritiesPath)
	}
	router := usecases.NewAuthorityRouter(authorities, domain.NewCategoryTable(cfg.Routing.Buckets))

	// Cache
	var reportCache ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Password, cfg.Valkey.DB)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer cache.Close()
		reportCache = cache
	}

	// NATS
	var (
		events   ports.EventPublisher
		notifier ports.NotificationService
	)
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, notifying authorities directly", "error", err)
		notifier = directNotifier(cfg.Mail)
	} else {
		defer pub.Close()
		events = pub
		notifier = pub
	}

	reports := usecases.NewReportService(usecases.ReportServiceConfig{
		Reports:  stores.Reports,
		Upvotes:  stores.Upvotes,
		Blobs:    blobs,
		Images:   imaging.NewExtractor(90),
		Region:   boundary,
		Router:   router,
		Notifier: notifier,
		Events:   events,
		Cache:    reportCache,
	})

	deps := &http.Dependencies{
		Reports:     reports,
		Authorities: authorities,
		Router:      router,
		Auth: http.AuthConfig{
			Secret:         cfg.Auth.Secret,
			ProtectResolve: cfg.Auth.ProtectResolve,
		},
		PublicBaseURL: cfg.Server.PublicBaseURL,
	}
	if stores.Health != nil {
		deps.Store = stores.Health
	}
	if pub != nil {
		deps.NATS = pub.Conn()
	}
	if cache != nil {
		deps.Cache = cache
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		AppName:      "CommunityEye API",
	})

	http.SetupRoutes(app, deps)
	if cfg.Blob.Driver == config.BlobLocal {
		app.Static("/uploads", cfg.Blob.LocalDir)
	}

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "storage", cfg.Storage.Driver, "blob", cfg.Blob.Driver)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// directNotifier sends mail in-process when the bus is down. Without an
// SMTP host the notification is only logged.
func directNotifier(cfg config.MailConfig) ports.NotificationService {
	if cfg.Host == "" {
		return mail.LogSender{}
	}
	return mail.NewSender(mail.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
	})
}

func seedAuthorities(ctx context.Context, svc *usecases.AuthorityService, path string) {
	auths, err := geojson.LoadAuthorities(path)
	if err != nil {
		slog.Warn("authority catalogue not loaded", "path", path, "error", err)
		return
	}
	for i := range auths {
		if err := svc.Upsert(ctx, &auths[i]); err != nil {
			slog.Warn("authority rejected", "name", auths[i].Name, "error", err)
		}
	}
	slog.Info("authority catalogue loaded", "path", path, "count", len(auths))
}
