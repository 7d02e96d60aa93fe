// Package seed fills a store with synthetic reports for demos and load
// tests.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/core/ports"
	"github.com/communityeye/communityeye/internal/core/usecases"
)

// Region is a service region that can also report its extent.
type Region interface {
	ports.ServiceRegion
	Bounds() (domain.Bounds, error)
}

const (
	imageNameLen    = 36
	maxPointTries   = 10000
	seedDescription = "Random report description"
)

const nameAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ErrNoPoint is returned when no in-region point was found.
var ErrNoPoint = errors.New("no point inside the service region")

// Generator writes random routed reports straight to the repository,
// bypassing image upload.
type Generator struct {
	Reports      ports.ReportRepository
	Region       Region
	Router       *usecases.AuthorityRouter
	ImageBaseURL string
	UserID       int64
	Rand         *rand.Rand
	Now          func() time.Time
}

// Generate attempts n reports and returns how many were stored. Attempts
// whose category and location route to no authority are skipped.
func (g *Generator) Generate(ctx context.Context, n int) (int, error) {
	bounds, err := g.Region.Bounds()
	if err != nil {
		return 0, fmt.Errorf("region bounds: %w", err)
	}
	categories := g.Router.Categories().Categories()
	if len(categories) == 0 {
		return 0, fmt.Errorf("no categories configured")
	}

	created := 0
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		p, err := g.randomPoint(bounds)
		if err != nil {
			return created, err
		}
		category := categories[g.rand().IntN(len(categories))]

		authority, err := g.Router.DetermineAuthority(ctx, p, category)
		if err != nil {
			return created, err
		}
		if authority == nil {
			slog.Debug("no authority for seeded report", "category", category, "lat", p.Lat, "lon", p.Lon)
			continue
		}

		report := g.report(p, category, authority.Name)
		id, err := g.Reports.Insert(ctx, report)
		if err != nil {
			return created, fmt.Errorf("insert report: %w", err)
		}
		slog.Debug("seeded report", "report_id", id, "authority", authority.Name)
		created++
	}
	return created, nil
}

func (g *Generator) randomPoint(b domain.Bounds) (domain.GeoPoint, error) {
	r := g.rand()
	for i := 0; i < maxPointTries; i++ {
		p := domain.GeoPoint{
			Lat: b.MinLat + r.Float64()*(b.MaxLat-b.MinLat),
			Lon: b.MinLon + r.Float64()*(b.MaxLon-b.MinLon),
		}
		if g.Region.IsWithinServiceRegion(p) {
			return p, nil
		}
	}
	return domain.GeoPoint{}, ErrNoPoint
}

func (g *Generator) report(p domain.GeoPoint, category, authority string) *domain.Report {
	name := g.imageName()
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	loc := p
	return &domain.Report{
		UserID:      g.UserID,
		Description: seedDescription,
		Category:    category,
		Location:    p,
		Geolocation: domain.NewGeoFeature(p),
		Image: domain.ImageMetadata{
			URL:         strings.TrimRight(g.ImageBaseURL, "/") + "/" + name,
			Name:        name,
			Width:       4032,
			Height:      3024,
			FileSize:    int64(1000 + g.rand().IntN(4001)),
			Geolocation: &loc,
		},
		AuthorityName: &authority,
		CreatedAt:     now().Unix(),
	}
}

func (g *Generator) imageName() string {
	r := g.rand()
	var b strings.Builder
	b.Grow(imageNameLen + 4)
	for i := 0; i < imageNameLen; i++ {
		b.WriteByte(nameAlphabet[r.IntN(len(nameAlphabet))])
	}
	b.WriteString(".jpg")
	return b.String()
}

func (g *Generator) rand() *rand.Rand {
	if g.Rand == nil {
		g.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return g.Rand
}
