package usecases

import (
	"context"
	"log/slog"

	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/pkg/geospatial"
	"github.com/communityeye/communityeye/internal/pkg/metrics"
)

// AuthorityRouter picks the authority responsible for a report.
type AuthorityRouter struct {
	catalogue  *AuthorityService
	categories *domain.CategoryTable
}

// NewAuthorityRouter creates a new AuthorityRouter.
func NewAuthorityRouter(catalogue *AuthorityService, categories *domain.CategoryTable) *AuthorityRouter {
	return &AuthorityRouter{catalogue: catalogue, categories: categories}
}

// Categories returns the classification table in use.
func (r *AuthorityRouter) Categories() *domain.CategoryTable {
	return r.categories
}

// DetermineAuthority maps category to an authority type and returns the
// first authority of that type, in catalogue order, whose service area
// contains p. Overlapping areas of the same type resolve to whichever was
// stored first; that is a simplification, not a jurisdiction rule.
//
// A nil authority with a nil error means nothing matched. Unknown categories
// never read the catalogue.
func (r *AuthorityRouter) DetermineAuthority(ctx context.Context, p domain.GeoPoint, category string) (*domain.Authority, error) {
	authorityType, ok := r.categories.Lookup(category)
	if !ok {
		slog.Warn("category not recognized", "category", category)
		metrics.RoutingOutcomes.WithLabelValues("unknown_category").Inc()
		return nil, nil
	}

	auths, err := r.catalogue.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range auths {
		a := &auths[i]
		if a.Type != authorityType {
			continue
		}
		if geospatial.AreaContains(a.Area, p) {
			metrics.RoutingOutcomes.WithLabelValues("matched").Inc()
			return a, nil
		}
	}

	slog.Info("no authority covers location",
		"authority_type", authorityType, "lat", p.Lat, "lon", p.Lon)
	metrics.RoutingOutcomes.WithLabelValues("unmatched").Inc()
	return nil, nil
}
