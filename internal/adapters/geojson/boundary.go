package geojson

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	orbjson "github.com/paulmach/orb/geojson"

	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/pkg/geospatial"
)

// Boundary answers whether a point lies in the served region described by a
// GeoJSON FeatureCollection. The file is read once; if that fails every
// point is treated as out of region.
type Boundary struct {
	path string

	once  sync.Once
	areas []domain.ServiceArea
	err   error
}

// NewBoundary creates a Boundary backed by the FeatureCollection at path.
// Nothing is read until Load or the first containment check.
func NewBoundary(path string) *Boundary {
	return &Boundary{path: path}
}

// NewBoundaryFromAreas creates an already-loaded Boundary.
func NewBoundaryFromAreas(areas ...domain.ServiceArea) *Boundary {
	b := &Boundary{areas: areas}
	b.once.Do(func() {})
	return b
}

// Load reads the boundary file. It is safe to call more than once; only the
// first call does any work.
func (b *Boundary) Load() error {
	b.once.Do(func() {
		b.areas, b.err = loadAreas(b.path)
		if b.err != nil {
			slog.Error("boundary load failed, all locations will be rejected",
				"path", b.path, "error", b.err)
			return
		}
		slog.Info("boundary loaded", "path", b.path, "features", len(b.areas))
	})
	return b.err
}

// IsWithinServiceRegion reports whether any boundary feature contains p.
func (b *Boundary) IsWithinServiceRegion(p domain.GeoPoint) bool {
	if err := b.Load(); err != nil {
		return false
	}
	for _, a := range b.areas {
		if geospatial.AreaContains(a, p) {
			return true
		}
	}
	return false
}

// Bounds returns the bounding box covering every feature.
func (b *Boundary) Bounds() (domain.Bounds, error) {
	if err := b.Load(); err != nil {
		return domain.Bounds{}, err
	}
	var (
		out   domain.Bounds
		found bool
	)
	for _, a := range b.areas {
		ab, ok := a.Bounds()
		if !ok {
			continue
		}
		if !found {
			out, found = ab, true
			continue
		}
		out.Extend(domain.GeoPoint{Lat: ab.MinLat, Lon: ab.MinLon})
		out.Extend(domain.GeoPoint{Lat: ab.MaxLat, Lon: ab.MaxLon})
	}
	if !found {
		return domain.Bounds{}, fmt.Errorf("boundary %s has no polygons", b.path)
	}
	return out, nil
}

func loadAreas(path string) ([]domain.ServiceArea, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	areas := make([]domain.ServiceArea, 0, len(fc.Features))
	for i, f := range fc.Features {
		area, err := geospatial.FromGeometry(f.Geometry)
		if err != nil {
			slog.Warn("skipping boundary feature", "index", i, "error", err)
			continue
		}
		areas = append(areas, area)
	}
	if len(areas) == 0 {
		return nil, fmt.Errorf("no polygon features in %s", path)
	}
	return areas, nil
}

func readFeatureCollection(path string) (*orbjson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fc, err := orbjson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}
