package domain

import "fmt"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat" bson:"lat" validate:"latitude"`
	Lon float64 `json:"lon" bson:"lon" validate:"longitude"`
}

// Validate checks the coordinate ranges.
func (p GeoPoint) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", p.Lon)
	}
	return nil
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Extend grows the box so it covers p.
func (b *Bounds) Extend(p GeoPoint) {
	if p.Lat < b.MinLat {
		b.MinLat = p.Lat
	}
	if p.Lat > b.MaxLat {
		b.MaxLat = p.Lat
	}
	if p.Lon < b.MinLon {
		b.MinLon = p.Lon
	}
	if p.Lon > b.MaxLon {
		b.MaxLon = p.Lon
	}
}

// Ring is a closed sequence of points (first == last).
type Ring []GeoPoint

// Polygon is a list of rings; ring 0 is the outer ring, the rest are holes.
type Polygon struct {
	Rings []Ring `json:"rings"`
}

// Outer returns the outer ring, or nil for an empty polygon.
func (p Polygon) Outer() Ring {
	if len(p.Rings) == 0 {
		return nil
	}
	return p.Rings[0]
}

// MultiPolygon is a set of polygons.
type MultiPolygon []Polygon

// GeometryType names the GeoJSON geometry kinds a service area may use.
type GeometryType string

const (
	GeometryPolygon      GeometryType = "Polygon"
	GeometryMultiPolygon GeometryType = "MultiPolygon"
)

// ServiceArea is the region an authority is responsible for. A Polygon area
// has exactly one member in Polygons.
type ServiceArea struct {
	Type     GeometryType `json:"type"`
	Polygons MultiPolygon `json:"polygons"`
}

// Bounds returns the bounding box of every outer ring in the area.
func (a ServiceArea) Bounds() (Bounds, bool) {
	var b Bounds
	first := true
	for _, poly := range a.Polygons {
		for _, pt := range poly.Outer() {
			if first {
				b = Bounds{MinLat: pt.Lat, MaxLat: pt.Lat, MinLon: pt.Lon, MaxLon: pt.Lon}
				first = false
				continue
			}
			b.Extend(pt)
		}
	}
	return b, !first
}

// GeoFeature is the GeoJSON Feature projection of a report location.
// Coordinates follow GeoJSON order: [lon, lat].
type GeoFeature struct {
	Type     string       `json:"type" bson:"type"`
	Geometry GeoJSONPoint `json:"geometry" bson:"geometry"`
}

// GeoJSONPoint is a GeoJSON Point geometry.
type GeoJSONPoint struct {
	Type        string     `json:"type" bson:"type"`
	Coordinates [2]float64 `json:"coordinates" bson:"coordinates"`
}

// NewGeoFeature builds the Feature/Point projection of p.
func NewGeoFeature(p GeoPoint) GeoFeature {
	return GeoFeature{
		Type: "Feature",
		Geometry: GeoJSONPoint{
			Type:        "Point",
			Coordinates: [2]float64{p.Lon, p.Lat},
		},
	}
}

// Point returns the location held by the feature.
func (f GeoFeature) Point() GeoPoint {
	return GeoPoint{Lat: f.Geometry.Coordinates[1], Lon: f.Geometry.Coordinates[0]}
}
