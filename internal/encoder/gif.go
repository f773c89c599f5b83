package encoder

import (
	"fmt"
	"image"

	"github.com/AnyUserName/gifcap/internal/gifenc"
)

// GIFEncoder writes the still as a single-frame GIF with its own NeuQuant
// palette, so the poster matches the colors of the animation.
type GIFEncoder struct{}

func (e *GIFEncoder) Format() string    { return "gif" }
func (e *GIFEncoder) Extension() string { return "gif" }
func (e *GIFEncoder) Available() bool   { return true }

func (e *GIFEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	b := img.Bounds()
	opts := gifenc.DefaultOptions()
	opts.Loop = gifenc.LoopNone
	opts.Quality = gifQuality(quality)

	enc, err := gifenc.New(b.Dx(), b.Dy(), opts)
	if err != nil {
		return nil, fmt.Errorf("create gif: %w", err)
	}
	if err := enc.Start(); err != nil {
		return nil, err
	}
	if err := enc.AddImage(img); err != nil {
		return nil, fmt.Errorf("encode gif frame: %w", err)
	}
	if err := enc.Finish(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}

// gifQuality maps a 1-100 still quality (higher is better) onto the
// encoder's 1-30 scale (lower is better).
func gifQuality(quality int) int {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return 1 + (100-quality)*29/99
}
