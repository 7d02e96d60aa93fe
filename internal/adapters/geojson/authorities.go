package geojson

import (
	"fmt"

	"github.com/communityeye/communityeye/internal/core/domain"
	"github.com/communityeye/communityeye/internal/pkg/geospatial"
)

// LoadAuthorities reads authority records from a FeatureCollection whose
// features carry authority_name, authority_type and email_address
// properties. Feature order is preserved.
func LoadAuthorities(path string) ([]domain.Authority, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Authority, 0, len(fc.Features))
	seen := make(map[string]bool)
	for i, f := range fc.Features {
		name := f.Properties.MustString("authority_name", "")
		typ := f.Properties.MustString("authority_type", "")
		if name == "" || typ == "" {
			return nil, fmt.Errorf("feature %d: authority_name and authority_type are required", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("feature %d: duplicate authority %q", i, name)
		}
		seen[name] = true

		area, err := geospatial.FromGeometry(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d (%s): %w", i, name, err)
		}
		out = append(out, domain.Authority{
			Name:         name,
			Type:         domain.AuthorityType(typ),
			Area:         area,
			ContactEmail: f.Properties.MustString("email_address", ""),
		})
	}
	return out, nil
}
