package encoder

import (
	"bytes"
	"image"
	"image/png"
)

// PNGEncoder encodes stills to PNG using Go's standard library. It is
// always available and is the fallback poster format. Frames with at most
// 256 distinct colors, typical of screen captures, are written paletted.
type PNGEncoder struct{}

func (e *PNGEncoder) Format() string    { return "png" }
func (e *PNGEncoder) Extension() string { return "png" }
func (e *PNGEncoder) Available() bool   { return true }

func (e *PNGEncoder) Encode(img image.Image, _ int) ([]byte, error) {
	if p, ok := palettize(img); ok {
		img = p
	}

	var buf bytes.Buffer
	b := img.Bounds()
	buf.Grow(b.Dx() * b.Dy())

	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
