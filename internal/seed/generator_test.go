package seed_test

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/communityeye/communityeye/internal/adapters/geojson"
	"github.com/communityeye/communityeye/internal/adapters/memory"
	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/core/usecases"
	"github.com/communityeye/communityeye/internal/seed"
)

func rect(minLat, minLon, maxLat, maxLon float64) domain.ServiceArea {
	ring := domain.Ring{
		{Lat: minLat, Lon: minLon},
		{Lat: minLat, Lon: maxLon},
		{Lat: maxLat, Lon: maxLon},
		{Lat: maxLat, Lon: minLon},
		{Lat: minLat, Lon: minLon},
	}
	return domain.ServiceArea{
		Type:     domain.GeometryPolygon,
		Polygons: domain.MultiPolygon{{Rings: []domain.Ring{ring}}},
	}
}

func newGenerator(t *testing.T, auths ...domain.Authority) (*seed.Generator, *memory.ReportRepo) {
	t.Helper()
	reports := memory.NewReportRepo()
	catalogue := usecases.NewAuthorityService(memory.NewAuthorityRepo(auths...))
	router := usecases.NewAuthorityRouter(catalogue, domain.NewCategoryTable(domain.DefaultCategoryBuckets()))
	return &seed.Generator{
		Reports:      reports,
		Region:       geojson.NewBoundaryFromAreas(rect(54.0, -8.0, 55.0, -5.5)),
		Router:       router,
		ImageBaseURL: "https://img.example/",
		UserID:       1,
		Rand:         rand.New(rand.NewPCG(1, 2)),
		Now:          func() time.Time { return time.Unix(1700000000, 0) },
	}, reports
}

func TestGenerate_AllRouted(t *testing.T) {
	g, reports := newGenerator(t,
		domain.Authority{Name: "Whole Council", Type: domain.CouncilAuthority, Area: rect(54.0, -8.0, 55.0, -5.5)},
		domain.Authority{Name: "Whole DfI", Type: domain.InfrastructureAuthority, Area: rect(54.0, -8.0, 55.0, -5.5)},
	)

	n, err := g.Generate(context.Background(), 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 25 {
		t.Fatalf("expected 25 reports, got %d", n)
	}

	all, _ := reports.List(context.Background())
	if len(all) != 25 {
		t.Fatalf("expected 25 stored reports, got %d", len(all))
	}
	for _, r := range all {
		if r.AuthorityName == nil {
			t.Errorf("report %s has no authority", r.ID)
		}
		if r.Location.Lat < 54.0 || r.Location.Lat > 55.0 {
			t.Errorf("report %s outside region: %+v", r.ID, r.Location)
		}
		if len(r.Image.Name) != 40 || !strings.HasSuffix(r.Image.Name, ".jpg") {
			t.Errorf("unexpected image name %q", r.Image.Name)
		}
		if r.Image.URL != "https://img.example/"+r.Image.Name {
			t.Errorf("unexpected image url %s", r.Image.URL)
		}
		if r.Image.Width != 4032 || r.Image.Height != 3024 {
			t.Errorf("unexpected dimensions %dx%d", r.Image.Width, r.Image.Height)
		}
		if r.Description != "Random report description" {
			t.Errorf("unexpected description %q", r.Description)
		}
		if r.CreatedAt != 1700000000 || r.UpvoteCount != 0 || r.Resolved {
			t.Errorf("unexpected initial state %+v", r)
		}
	}
}

func TestGenerate_SkipsUnrouted(t *testing.T) {
	g, reports := newGenerator(t)

	n, err := g.Generate(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected nothing stored without authorities, got %d", n)
	}
	all, _ := reports.List(context.Background())
	if len(all) != 0 {
		t.Errorf("expected empty store, got %d", len(all))
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	g, _ := newGenerator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Generate(ctx, 5); err == nil {
		t.Error("expected context error")
	}
}
