package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/communityeye/communityeye/internal/adapters/geojson"
	"github.com/communityeye/communityeye/internal/bootstrap"
	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/core/usecases"
	"github.com/communityeye/communityeye/internal/pkg/config"
	"github.com/communityeye/communityeye/internal/pkg/logging"
	"github.com/communityeye/communityeye/internal/seed"
)

func main() {
	var (
		count        = flag.Int("reports", 1000, "number of reports to generate")
		userID       = flag.Int64("user", 1, "user id owning the generated reports")
		imageBaseURL = flag.String("image-base-url", "https://images.communityeye.local/reports", "prefix for generated image URLs")
		skipCatalog  = flag.Bool("skip-authorities", false, "do not load the authority catalogue first")
	)
	flag.Parse()

	cfg, err := config.LoadStorage("communityeye-seed")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, "text")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	defer stores.Close()

	authorities := usecases.NewAuthorityService(stores.Authorities)
	if !*skipCatalog {
		auths, err := geojson.LoadAuthorities(cfg.Boundary.AuthoritiesPath)
		if err != nil {
			log.Fatalf("authorities: %v", err)
		}
		for i := range auths {
			if err := authorities.Upsert(ctx, &auths[i]); err != nil {
				log.Fatalf("upsert %s: %v", auths[i].Name, err)
			}
		}
		slog.Info("authority catalogue loaded", "count", len(auths))
	}

	boundary := geojson.NewBoundary(cfg.Boundary.Path)
	if err := boundary.Load(); err != nil {
		log.Fatalf("boundary: %v", err)
	}

	gen := &seed.Generator{
		Reports:      stores.Reports,
		Region:       boundary,
		Router:       usecases.NewAuthorityRouter(authorities, domain.NewCategoryTable(cfg.Routing.Buckets)),
		ImageBaseURL: *imageBaseURL,
		UserID:       *userID,
	}

	created, err := gen.Generate(ctx, *count)
	if err != nil {
		log.Fatalf("generate: %v (created %d)", err, created)
	}
	slog.Info("seeding finished", "requested", *count, "created", created)
}
