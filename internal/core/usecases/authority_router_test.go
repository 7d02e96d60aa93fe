package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/core/usecases"
)

func newRouter(repo *mockAuthorityRepo) *usecases.AuthorityRouter {
	return usecases.NewAuthorityRouter(
		usecases.NewAuthorityService(repo),
		domain.NewCategoryTable(domain.DefaultCategoryBuckets()),
	)
}

func TestDetermineAuthority(t *testing.T) {
	repo := &mockAuthorityRepo{listFn: func(ctx context.Context) ([]domain.Authority, error) {
		return catalogueAll, nil
	}}
	router := newRouter(repo)

	tests := []struct {
		name     string
		point    domain.GeoPoint
		category string
		want     string
	}{
		{"council category in Belfast", belfast, "Street cleaning issue", "Belfast City Council"},
		{"infrastructure category in Belfast", belfast, "Potholes", "DfI Eastern"},
		{"council category in Derry", londonderry, "Missed bin collection", "Derry City and Strabane"},
		{"infrastructure outside any area", londonderry, "Potholes", ""},
		{"unknown category", belfast, "Alien sighting", ""},
		{"case sensitive category", belfast, "potholes", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := router.DetermineAuthority(context.Background(), tt.point, tt.category)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := ""
			if a != nil {
				got = a.Name
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDetermineAuthority_UnknownCategorySkipsCatalogue(t *testing.T) {
	repo := &mockAuthorityRepo{}
	router := newRouter(repo)

	a, err := router.DetermineAuthority(context.Background(), belfast, "Graffiti on the moon")
	if err != nil || a != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", a, err)
	}
	if repo.listCalls != 0 {
		t.Errorf("expected catalogue not to be read, got %d calls", repo.listCalls)
	}
}

func TestDetermineAuthority_FirstMatchWins(t *testing.T) {
	wide := domain.Authority{Name: "Wide Council", Type: domain.CouncilAuthority, Area: rect(54.0, -8.2, 55.4, -5.4)}
	repo := &mockAuthorityRepo{listFn: func(ctx context.Context) ([]domain.Authority, error) {
		return []domain.Authority{wide, belfastCC}, nil
	}}
	router := newRouter(repo)

	for i := 0; i < 5; i++ {
		a, err := router.DetermineAuthority(context.Background(), belfast, "Pavement issue")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a == nil || a.Name != "Wide Council" {
			t.Fatalf("expected first stored authority, got %+v", a)
		}
	}
}

func TestDetermineAuthority_CatalogueFailure(t *testing.T) {
	repo := &mockAuthorityRepo{listFn: func(ctx context.Context) ([]domain.Authority, error) {
		return nil, errors.New("connection refused")
	}}
	router := newRouter(repo)

	_, err := router.DetermineAuthority(context.Background(), belfast, "Potholes")
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestAuthorityService_UpsertValidates(t *testing.T) {
	svc := usecases.NewAuthorityService(&mockAuthorityRepo{})
	ctx := context.Background()

	if err := svc.Upsert(ctx, &domain.Authority{Type: domain.CouncilAuthority, Area: rect(0, 0, 1, 1)}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := svc.Upsert(ctx, &domain.Authority{Name: "X", Area: rect(0, 0, 1, 1)}); err == nil {
		t.Error("expected error for missing type")
	}
	if err := svc.Upsert(ctx, &domain.Authority{Name: "X", Type: domain.CouncilAuthority}); err == nil {
		t.Error("expected error for empty area")
	}
	if err := svc.Upsert(ctx, &belfastCC); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
