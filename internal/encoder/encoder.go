// Package encoder writes single still frames, used for the poster image
// that accompanies an animation.
package encoder

import (
	"image"
)

// Encoder encodes an image to a specific format.
type Encoder interface {
	// Format returns the output format name ("png", "jpeg", "webp", "gif").
	Format() string

	// Encode converts the image to bytes at the given quality (1-100).
	// Lossless encoders ignore quality.
	Encode(img image.Image, quality int) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	// External encoders (cwebp) may not be installed.
	Available() bool

	// Extension returns the file extension without dot.
	Extension() string
}

// DefaultQuality is used when a caller passes a quality outside 1-100.
const DefaultQuality = 92
