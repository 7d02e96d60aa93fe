package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image/jpeg"

	"github.com/jdeng/goheif"
)

var exifHeader = []byte("Exif\x00\x00")

// ConvertHEIC decodes a HEIC image and re-encodes it as JPEG. The original
// EXIF block, GPS tags included, is carried over into an APP1 segment.
func ConvertHEIC(data []byte, quality int) ([]byte, error) {
	r := bytes.NewReader(data)
	rawExif, err := goheif.ExtractExif(r)
	if err != nil {
		// Images without EXIF still convert.
		rawExif = nil
	}

	img, err := goheif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode heic: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	if len(rawExif) == 0 {
		return buf.Bytes(), nil
	}
	return EmbedEXIF(buf.Bytes(), rawExif)
}

// EmbedEXIF inserts an APP1 EXIF segment directly after the JPEG SOI marker.
// The payload may be given with or without the "Exif\0\0" header.
func EmbedEXIF(jpegData, payload []byte) ([]byte, error) {
	if len(jpegData) < 2 || jpegData[0] != 0xFF || jpegData[1] != 0xD8 {
		return nil, errors.New("not a jpeg stream")
	}
	if !bytes.HasPrefix(payload, exifHeader) {
		payload = append(append([]byte{}, exifHeader...), payload...)
	}
	segLen := len(payload) + 2
	if segLen > 0xFFFF {
		return nil, fmt.Errorf("exif block too large (%d bytes)", len(payload))
	}

	out := make([]byte, 0, len(jpegData)+segLen+2)
	out = append(out, 0xFF, 0xD8, 0xFF, 0xE1)
	out = binary.BigEndian.AppendUint16(out, uint16(segLen))
	out = append(out, payload...)
	out = append(out, jpegData[2:]...)
	return out, nil
}
