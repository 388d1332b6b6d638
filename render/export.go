package render

import (
	"bytes"
	"fmt"
	"image/png"
)

// PNGSignature is the fixed 8-byte header that starts every PNG stream.
var PNGSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// ExportPNG encodes the current surface contents as PNG.
func ExportPNG(s *Surface) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Image()); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
