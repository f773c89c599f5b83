package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// probeSize reads only the header of a frame file.
func probeSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// decodeFrame opens and decodes one frame file.
func decodeFrame(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

// fitFrame returns img as an opaque width x height NRGBA image. Frames
// with transparency are flattened onto black.
func fitFrame(img image.Image, width, height int) *image.NRGBA {
	var out *image.NRGBA
	if b := img.Bounds(); b.Dx() == width && b.Dy() == height {
		out = imaging.Clone(img)
	} else {
		out = imaging.Resize(img, width, height, imaging.Lanczos)
	}
	if out.Opaque() {
		return out
	}
	bg := imaging.New(width, height, color.NRGBA{A: 255})
	return imaging.Overlay(bg, out, image.Pt(0, 0), 1.0)
}

// loadBatch decodes and fits a batch of frames with up to workers
// goroutines. Results are returned in input order.
func loadBatch(ctx context.Context, batch []Source, width, height, workers int) ([]*image.NRGBA, error) {
	out := make([]*image.NRGBA, len(batch))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range batch {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := decodeFrame(src.AbsPath)
			if err != nil {
				return fmt.Errorf("decode %s: %w", src.RelPath, err)
			}
			out[i] = fitFrame(img, width, height)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
