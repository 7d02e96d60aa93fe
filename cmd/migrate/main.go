package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/communityeye/communityeye/internal/bootstrap"
	"github.com/communityeye/communityeye/internal/pkg/config"
	"github.com/communityeye/communityeye/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.LoadStorage("communityeye-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, "text")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()

		switch os.Args[1] {
		case "up":
			runMigrations(ctx, pool)
		case "down":
			dropTables(ctx, pool)
		default:
			log.Fatalf("unknown command: %s", os.Args[1])
		}

	case config.DriverMongo:
		stores, err := bootstrap.OpenStores(ctx, cfg)
		if err != nil {
			log.Fatalf("mongo: %v", err)
		}
		defer stores.Close()

		switch os.Args[1] {
		case "up":
			if err := stores.Mongo.EnsureIndexes(ctx); err != nil {
				log.Fatalf("ensure indexes: %v", err)
			}
			log.Println("mongo indexes ensured")
		case "down":
			if err := stores.Mongo.DropCollections(ctx); err != nil {
				log.Fatalf("drop collections: %v", err)
			}
			log.Println("mongo collections dropped")
		default:
			log.Fatalf("unknown command: %s", os.Args[1])
		}

	default:
		log.Printf("storage driver %s needs no migrations", cfg.Storage.Driver)
	}
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) {
	files := []string{
		"migrations/001_core_tables.sql",
		"migrations/002_upvotes.sql",
	}

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		_, err = pool.Exec(ctx, string(data))
		if err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
}

func dropTables(ctx context.Context, pool *pgxpool.Pool) {
	for _, table := range []string{"upvotes", "reports", "authorities"} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			log.Fatalf("drop %s: %v", table, err)
		}
		fmt.Printf("DROP %s\n", table)
	}
}
