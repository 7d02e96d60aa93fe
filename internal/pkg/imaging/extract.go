// Package imaging normalises uploaded photos and reads the GPS position
// recorded in their EXIF metadata.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/communityeye/communityeye/internal/core/domain"
)

// Extractor implements ports.ImageExtractor.
type Extractor struct {
	// JPEGQuality is used when HEIC uploads are re-encoded.
	JPEGQuality int
}

// NewExtractor creates an Extractor with the given HEIC re-encode quality.
func NewExtractor(jpegQuality int) *Extractor {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = 95
	}
	return &Extractor{JPEGQuality: jpegQuality}
}

// Extract converts HEIC uploads to JPEG, decodes the image and reads its
// GPS position. A missing GPS block is not an error; Geolocation is nil.
func (e *Extractor) Extract(up *domain.ImageUpload) (*domain.ProcessedImage, error) {
	data := up.Data
	name := up.Filename
	contentType := up.ContentType

	if IsHEIC(contentType, name) {
		converted, err := ConvertHEIC(data, e.JPEGQuality)
		if err != nil {
			return nil, fmt.Errorf("%w: convert heic: %v", domain.ErrUnreadableImage, err)
		}
		slog.Debug("converted heic upload to jpeg", "name", name, "bytes", len(converted))
		data = converted
		name = replaceExt(name, ".jpg")
		contentType = "image/jpeg"
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableImage, err)
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "image/" + format
	}

	geo, err := ReadGPS(data)
	if err != nil {
		slog.Warn("ignoring unreadable gps metadata", "name", name, "error", err)
		geo = nil
	}

	b := img.Bounds()
	return &domain.ProcessedImage{
		Name:        name,
		ContentType: contentType,
		Data:        data,
		Width:       b.Dx(),
		Height:      b.Dy(),
		Geolocation: geo,
	}, nil
}

// IsHEIC reports whether an upload is a HEIC/HEIF image, by content type or
// by file extension.
func IsHEIC(contentType, filename string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "image/heic" || ct == "image/heif" {
		return true
	}
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".heic" || ext == ".heif"
}

func replaceExt(name, ext string) string {
	if name == "" {
		return "image" + ext
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}
