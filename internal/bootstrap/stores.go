// Package bootstrap opens the configured stores for the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/communityeye/communityeye/internal/adapters/blob"
	"github.com/communityeye/communityeye/internal/adapters/memory"
	"github.com/communityeye/communityeye/internal/adapters/mongodb"
	"github.com/communityeye/communityeye/internal/adapters/postgres"
	"github.com/communityeye/communityeye/internal/core/ports"
	"github.com/communityeye/communityeye/internal/pkg/config"
)

// Pinger reports store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stores bundles the repositories of one storage driver.
type Stores struct {
	Reports     ports.ReportRepository
	Authorities ports.AuthorityRepository
	Upvotes     ports.UpvoteRepository
	// Health is nil for the memory driver.
	Health Pinger
	// Postgres is set for the postgres driver only.
	Postgres *postgres.DB
	// Mongo is set for the mongo driver only.
	Mongo *mongodb.Client

	close func()
}

// OpenStores connects to the store selected by storage.driver. For mongo the
// unique indexes are created before any repository is handed out.
func OpenStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return &Stores{
			Reports:     postgres.NewReportRepo(db),
			Authorities: postgres.NewAuthorityRepo(db),
			Upvotes:     postgres.NewUpvoteRepo(db),
			Health:      db,
			Postgres:    db,
			close:       db.Close,
		}, nil

	case config.DriverMongo:
		client, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, mongodb.Collections{
			Reports:     cfg.Mongo.ReportsCollection,
			Authorities: cfg.Mongo.AuthorityCollection,
			Upvotes:     cfg.Mongo.UpvotesCollection,
		}, time.Duration(cfg.Mongo.OperationTimeoutSecs)*time.Second)
		if err != nil {
			return nil, fmt.Errorf("mongo: %w", err)
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			_ = client.Close(context.Background())
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return &Stores{
			Reports:     mongodb.NewReportRepo(client),
			Authorities: mongodb.NewAuthorityRepo(client),
			Upvotes:     mongodb.NewUpvoteRepo(client),
			Health:      client,
			Mongo:       client,
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := client.Close(ctx); err != nil {
					slog.Warn("mongo disconnect failed", "error", err)
				}
			},
		}, nil

	case config.DriverMemory:
		slog.Warn("using in-memory store; data is lost on restart")
		return &Stores{
			Reports:     memory.NewReportRepo(),
			Authorities: memory.NewAuthorityRepo(),
			Upvotes:     memory.NewUpvoteRepo(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Close releases the underlying connection.
func (s *Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenBlobStore creates the image store selected by blob.driver. Local
// blobs are served under publicBaseURL + "/uploads".
func OpenBlobStore(cfg *config.Config) (ports.BlobStore, error) {
	switch cfg.Blob.Driver {
	case config.BlobCloudinary:
		c := cfg.Blob.Cloudinary
		return blob.NewCloudinary(c.CloudName, c.APIKey, c.APISecret, c.Folder)
	case config.BlobLocal:
		return blob.NewLocal(cfg.Blob.LocalDir, strings.TrimRight(cfg.Server.PublicBaseURL, "/")+"/uploads")
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Blob.Driver)
	}
}
