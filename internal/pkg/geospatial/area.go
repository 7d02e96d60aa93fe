package geospatial

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// RingContains reports whether pt lies inside ring. Points on an edge or
// vertex count as inside. Rings with fewer than three points contain nothing.
func RingContains(ring domain.Ring, pt domain.GeoPoint) bool {
	if len(ring) < 3 {
		return false
	}
	return planar.RingContains(toOrbRing(ring), orb.Point{pt.Lon, pt.Lat})
}

// PolygonContains tests pt against the outer ring only; holes are ignored.
func PolygonContains(p domain.Polygon, pt domain.GeoPoint) bool {
	return RingContains(p.Outer(), pt)
}

// MultiPolygonContains is true when any member polygon contains pt.
func MultiPolygonContains(mp domain.MultiPolygon, pt domain.GeoPoint) bool {
	for _, p := range mp {
		if PolygonContains(p, pt) {
			return true
		}
	}
	return false
}

// AreaContains tests pt against a service area of either geometry type.
func AreaContains(a domain.ServiceArea, pt domain.GeoPoint) bool {
	return MultiPolygonContains(a.Polygons, pt)
}

// FromGeometry converts a decoded GeoJSON geometry into a service area.
// Only Polygon and MultiPolygon are accepted.
func FromGeometry(g orb.Geometry) (domain.ServiceArea, error) {
	switch v := g.(type) {
	case orb.Polygon:
		return domain.ServiceArea{
			Type:     domain.GeometryPolygon,
			Polygons: domain.MultiPolygon{fromOrbPolygon(v)},
		}, nil
	case orb.MultiPolygon:
		mp := make(domain.MultiPolygon, 0, len(v))
		for _, p := range v {
			mp = append(mp, fromOrbPolygon(p))
		}
		return domain.ServiceArea{Type: domain.GeometryMultiPolygon, Polygons: mp}, nil
	case nil:
		return domain.ServiceArea{}, fmt.Errorf("missing geometry")
	default:
		return domain.ServiceArea{}, fmt.Errorf("unsupported geometry type %q", g.GeoJSONType())
	}
}

// DecodeArea parses a GeoJSON geometry object ({"type":..., "coordinates":...}).
func DecodeArea(data []byte) (domain.ServiceArea, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return domain.ServiceArea{}, fmt.Errorf("decode geometry: %w", err)
	}
	return FromGeometry(g.Geometry())
}

// EncodeArea renders a service area as a GeoJSON geometry object.
func EncodeArea(a domain.ServiceArea) ([]byte, error) {
	return json.Marshal(geojson.NewGeometry(ToGeometry(a)))
}

// ToGeometry converts a service area back into an orb geometry.
func ToGeometry(a domain.ServiceArea) orb.Geometry {
	if a.Type == domain.GeometryPolygon && len(a.Polygons) == 1 {
		return toOrbPolygon(a.Polygons[0])
	}
	mp := make(orb.MultiPolygon, 0, len(a.Polygons))
	for _, p := range a.Polygons {
		mp = append(mp, toOrbPolygon(p))
	}
	return mp
}

func fromOrbPolygon(p orb.Polygon) domain.Polygon {
	rings := make([]domain.Ring, 0, len(p))
	for _, r := range p {
		ring := make(domain.Ring, 0, len(r))
		for _, c := range r {
			ring = append(ring, domain.GeoPoint{Lat: c.Lat(), Lon: c.Lon()})
		}
		rings = append(rings, ring)
	}
	return domain.Polygon{Rings: rings}
}

func toOrbPolygon(p domain.Polygon) orb.Polygon {
	out := make(orb.Polygon, 0, len(p.Rings))
	for _, r := range p.Rings {
		out = append(out, toOrbRing(r))
	}
	return out
}

func toOrbRing(r domain.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(r))
	for _, pt := range r {
		out = append(out, orb.Point{pt.Lon, pt.Lat})
	}
	return out
}
