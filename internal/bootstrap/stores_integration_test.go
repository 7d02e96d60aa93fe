//go:build integration
// +build integration

package bootstrap_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/communityeye/communityeye/internal/bootstrap"
	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/pkg/config"
)

// Opens mongo on fresh collections without running migrate first, as the
// API does on an empty database.
func TestOpenStores_MongoRejectsDuplicateUpvotes(t *testing.T) {
	cfg, err := config.LoadStorage("communityeye-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	suffix := fmt.Sprintf("_boot_%d", time.Now().UnixNano())
	cfg.Storage.Driver = config.DriverMongo
	cfg.Mongo.ReportsCollection = "reports" + suffix
	cfg.Mongo.AuthorityCollection = "authorities" + suffix
	cfg.Mongo.UpvotesCollection = "upvotes" + suffix

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	stores, err := bootstrap.OpenStores(ctx, cfg)
	if err != nil {
		t.Fatalf("open stores: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := stores.Mongo.DropCollections(ctx); err != nil {
			t.Logf("drop collections: %v", err)
		}
		stores.Close()
	})

	const workers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		inserted   int
		duplicates int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := stores.Upvotes.Insert(ctx, &domain.Upvote{UserID: 11, ReportID: "r-1", Timestamp: time.Now()})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				inserted++
			case errors.Is(err, domain.ErrDuplicate):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if inserted != 1 || duplicates != workers-1 {
		t.Errorf("expected 1 insert and %d duplicates, got %d and %d", workers-1, inserted, duplicates)
	}
}
