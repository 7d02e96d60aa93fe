//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/communityeye/communityeye/internal/adapters/postgres"
	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/pkg/config"
)

// setupTestDB connects to the database configured by COMMUNITYEYE_DATABASE_*.
// The schema must already be migrated.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	cfg, err := config.LoadStorage("communityeye-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func square(lat, lon, d float64) domain.ServiceArea {
	ring := domain.Ring{
		{Lat: lat - d, Lon: lon - d}, {Lat: lat - d, Lon: lon + d},
		{Lat: lat + d, Lon: lon + d}, {Lat: lat + d, Lon: lon - d},
		{Lat: lat - d, Lon: lon - d},
	}
	return domain.ServiceArea{Type: domain.GeometryPolygon, Polygons: domain.MultiPolygon{{Rings: []domain.Ring{ring}}}}
}

func TestAuthorityRepo_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewAuthorityRepo(db)
	ctx := context.Background()

	name := fmt.Sprintf("Test Council %d", time.Now().UnixNano())
	a := &domain.Authority{Name: name, Type: domain.CouncilAuthority, Area: square(54.6, -5.9, 0.1)}
	if err := repo.Upsert(ctx, a); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	a.ContactEmail = "council@example.org"
	if err := repo.Upsert(ctx, a); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.GetByName(ctx, name)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ContactEmail != "council@example.org" {
		t.Errorf("expected updated email, got %q", got.ContactEmail)
	}
	if len(got.Area.Polygons) != 1 || len(got.Area.Polygons[0].Outer()) != 5 {
		t.Errorf("area not round-tripped: %+v", got.Area)
	}

	if _, err := repo.GetByName(ctx, name+" missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAuthorityRepo_ListSkipsMalformedArea(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewAuthorityRepo(db)
	ctx := context.Background()

	stamp := time.Now().UnixNano()
	good := fmt.Sprintf("Test Council %d", stamp)
	bad := fmt.Sprintf("Broken Council %d", stamp)
	if err := repo.Upsert(ctx, &domain.Authority{Name: good, Type: domain.CouncilAuthority, Area: square(54.6, -5.9, 0.1)}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := db.Pool.Exec(ctx,
		`INSERT INTO authorities (authority_name, authority_type, area) VALUES ($1, 'Council', '{"type":"Point","coordinates":[-5.9,54.6]}')`,
		bad); err != nil {
		t.Fatalf("insert malformed authority: %v", err)
	}
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM authorities WHERE authority_name IN ($1, $2)`, good, bad)
	})

	auths, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var sawGood bool
	for _, a := range auths {
		if a.Name == bad {
			t.Errorf("malformed authority %q should be left out", bad)
		}
		if a.Name == good {
			sawGood = true
		}
	}
	if !sawGood {
		t.Errorf("expected %q in list", good)
	}
}

func TestReportRepo_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	reports := postgres.NewReportRepo(db)
	upvotes := postgres.NewUpvoteRepo(db)
	ctx := context.Background()

	p := domain.GeoPoint{Lat: 54.597, Lon: -5.93}
	authority := "Belfast City Council"
	id, err := reports.Insert(ctx, &domain.Report{
		UserID:        7,
		Description:   "Pothole on Royal Avenue",
		Category:      "Potholes",
		Location:      p,
		Geolocation:   domain.NewGeoFeature(p),
		Image:         domain.ImageMetadata{URL: "https://img.example/a.jpg", Name: "a.jpg", Width: 10, Height: 10, FileSize: 100},
		AuthorityName: &authority,
		CreatedAt:     time.Now().Unix(),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := reports.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Resolved || got.UpvoteCount != 0 || got.AuthorityName == nil || *got.AuthorityName != authority {
		t.Errorf("unexpected initial report %+v", got)
	}

	if err := reports.MarkResolved(ctx, id); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if err := reports.MarkResolved(ctx, id); err != nil {
		t.Fatalf("resolve twice: %v", err)
	}

	if err := upvotes.Insert(ctx, &domain.Upvote{UserID: 9, ReportID: id, Timestamp: time.Now()}); err != nil {
		t.Fatalf("upvote: %v", err)
	}
	if err := upvotes.Insert(ctx, &domain.Upvote{UserID: 9, ReportID: id, Timestamp: time.Now()}); !errors.Is(err, domain.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if n, err := reports.IncrementUpvotes(ctx, id); err != nil || n != 1 {
		t.Errorf("expected 1 row incremented, got %d, %v", n, err)
	}

	mine, err := reports.ListByUser(ctx, 7)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	found := false
	for _, r := range mine {
		if r.ID == id {
			found = r.Resolved && r.UpvoteCount == 1
		}
	}
	if !found {
		t.Error("expected resolved, upvoted report in user listing")
	}

	if err := reports.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := reports.GetByID(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := reports.Delete(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestReportRepo_MalformedID(t *testing.T) {
	db := setupTestDB(t)
	reports := postgres.NewReportRepo(db)

	if _, err := reports.GetByID(context.Background(), "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for malformed id, got %v", err)
	}
}
