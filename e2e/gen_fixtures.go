//go:build ignore

// gen_fixtures creates small frame sequences for the E2E smoke test.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
)

const frames = 24

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	for _, sub := range []string{"ball", "fade", "still"} {
		os.MkdirAll(filepath.Join(dir, sub), 0o755)
	}

	// Ball (PNG, 640x360): a dot crossing a gradient, larger than the
	// default max dimension so frames get fitted.
	for i := 0; i < frames; i++ {
		writeImage(filepath.Join(dir, "ball", fmt.Sprintf("frame%d.png", i+1)), ball(640, 360, i))
	}

	// Fade (JPEG, 200x150): brightness ramp, exercises lossy input.
	for i := 0; i < frames; i++ {
		writeJPEG(filepath.Join(dir, "fade", fmt.Sprintf("fade-%03d.jpg", i)), solid(200, 150, uint8(i*255/(frames-1))))
	}

	// Still (PNG with alpha, 100x100): repeated frames for --dedupe.
	for i := 0; i < 6; i++ {
		writeImage(filepath.Join(dir, "still", fmt.Sprintf("s%d.png", i)), alphaGradient(100, 100))
	}

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created %d frames in %s\n", 2*frames+6, dir)
}

func ball(w, h, step int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	cx := 20 + step*(w-40)/(frames-1)
	cy := h / 2
	r := h / 8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			}
			if dx, dy := x-cx, y-cy; dx*dx+dy*dy <= r*r {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func solid(w, h int, v uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	return img
}

func alphaGradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: 220, G: 60, B: 30,
				A: uint8(x * 255 / w),
			})
		}
	}
	return img
}

func writeImage(path string, img *image.NRGBA) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		panic(err)
	}
}

func writeJPEG(path string, img *image.NRGBA) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		panic(err)
	}
}
