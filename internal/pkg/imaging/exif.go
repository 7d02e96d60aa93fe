package imaging

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// ReadGPS returns the position stored in the image's EXIF GPS block, or nil
// when the image has no EXIF data or no GPS tags.
func ReadGPS(data []byte) (*domain.GeoPoint, error) {
	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return nil, nil
	}

	lat, ok, err := readCoordinate(x, exif.GPSLatitude, exif.GPSLatitudeRef)
	if err != nil || !ok {
		return nil, err
	}
	lon, ok, err := readCoordinate(x, exif.GPSLongitude, exif.GPSLongitudeRef)
	if err != nil || !ok {
		return nil, err
	}
	return &domain.GeoPoint{Lat: lat, Lon: lon}, nil
}

func readCoordinate(x *exif.Exif, valueField, refField exif.FieldName) (float64, bool, error) {
	tag, err := x.Get(valueField)
	if err != nil {
		if exif.IsTagNotPresentError(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	ref := ""
	if refTag, err := x.Get(refField); err == nil {
		ref, _ = refTag.StringVal()
	}

	dms, err := rationals(tag, 3)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", valueField, err)
	}
	return DecimalDegrees(dms[0], dms[1], dms[2], ref), true, nil
}

func rationals(tag *tiff.Tag, n int) ([]float64, error) {
	if int(tag.Count) < n {
		return nil, fmt.Errorf("expected %d rationals, got %d", n, tag.Count)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return nil, err
		}
		if den == 0 {
			return nil, fmt.Errorf("zero denominator at index %d", i)
		}
		out[i] = float64(num) / float64(den)
	}
	return out, nil
}

// DecimalDegrees converts degrees/minutes/seconds to decimal degrees,
// negated for the S and W hemispheres and rounded to six decimal places.
func DecimalDegrees(deg, min, sec float64, ref string) float64 {
	v := deg + min/60 + sec/3600
	switch strings.ToUpper(strings.Trim(ref, " \x00")) {
	case "S", "W":
		v = -v
	}
	return math.Round(v*1e6) / 1e6
}
