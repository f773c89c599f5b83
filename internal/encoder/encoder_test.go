package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 24, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 24; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 15), B: 80, A: 255})
		}
	}
	return img
}

func TestRegistry_BuiltinsAlwaysAvailable(t *testing.T) {
	r := NewRegistry()
	for _, f := range []string{"png", "jpeg", "jpg", "JPEG", "gif"} {
		if r.Get(f) == nil {
			t.Errorf("format %q unavailable", f)
		}
	}
	if !strings.Contains(r.String(), "png") {
		t.Errorf("summary: got %q", r.String())
	}
	if _, err := r.Resolve("bmp"); err == nil {
		t.Error("unknown format resolved")
	}
}

func TestPNGEncoder_Decodes(t *testing.T) {
	src := testImage()
	data, err := (&PNGEncoder{}).Encode(src, 0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds() != src.Bounds() {
		t.Errorf("bounds: got %v, want %v", img.Bounds(), src.Bounds())
	}
	r, g, b, _ := img.At(5, 7).RGBA()
	want := src.NRGBAAt(5, 7)
	if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
		t.Errorf("pixel (5,7): got %d,%d,%d, want %v", r>>8, g>>8, b>>8, want)
	}
}

func TestJPEGEncoder_QualityFallback(t *testing.T) {
	enc := &JPEGEncoder{}
	if enc.Extension() != "jpg" {
		t.Errorf("extension: got %q, want jpg", enc.Extension())
	}
	def, err := enc.Encode(testImage(), 0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	explicit, err := enc.Encode(testImage(), DefaultQuality)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.Equal(def, explicit) {
		t.Error("out-of-range quality did not fall back to the default")
	}
	if _, err := jpeg.Decode(bytes.NewReader(def)); err != nil {
		t.Errorf("decode: %v", err)
	}
}

func twoColorImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			c := color.NRGBA{R: 240, G: 240, B: 240, A: 255}
			if x < 10 {
				c = color.NRGBA{R: 20, G: 40, B: 200, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestPNGEncoder_FewColorsPaletted(t *testing.T) {
	data, err := (&PNGEncoder{}).Encode(twoColorImage(), 0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	p, ok := img.(*image.Paletted)
	if !ok {
		t.Fatalf("decoded type: got %T, want *image.Paletted", img)
	}
	if len(p.Palette) != 2 {
		t.Errorf("palette: got %d entries, want 2", len(p.Palette))
	}
	if got := color.NRGBAModel.Convert(p.At(3, 3)).(color.NRGBA); got != (color.NRGBA{R: 20, G: 40, B: 200, A: 255}) {
		t.Errorf("pixel (3,3): got %v", got)
	}

	// A gradient with more than 256 colors stays true color.
	src := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for i := 0; i < 32*32; i++ {
		src.Pix[i*4], src.Pix[i*4+1], src.Pix[i*4+3] = uint8(i), uint8(i>>8), 255
	}
	if _, ok := palettize(src); ok {
		t.Error("1024-color image palettized")
	}
}

func TestJPEGEncoder_OpaqueFastPath(t *testing.T) {
	src := twoColorImage()
	if _, ok := opaqueRGBA(src).(*image.RGBA); !ok {
		t.Errorf("opaque NRGBA: got %T, want *image.RGBA", opaqueRGBA(src))
	}
	translucent := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	if _, ok := opaqueRGBA(translucent).(*image.NRGBA); !ok {
		t.Error("translucent NRGBA was reinterpreted")
	}

	data, err := (&JPEGEncoder{}).Encode(src, 95)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, b, _ := img.At(2, 5).RGBA()
	if d := absDiff(r>>8, 20) + absDiff(g>>8, 40) + absDiff(b>>8, 200); d > 30 {
		t.Errorf("pixel (2,5): got %d,%d,%d, want about 20,40,200", r>>8, g>>8, b>>8)
	}
}

func TestGIFEncoder_SingleFrame(t *testing.T) {
	data, err := (&GIFEncoder{}).Encode(twoColorImage(), 0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(g.Image) != 1 {
		t.Fatalf("frames: got %d, want 1", len(g.Image))
	}
	if g.LoopCount != -1 {
		t.Errorf("LoopCount: got %d, want -1 (no loop block)", g.LoopCount)
	}
	if g.Config.Width != 20 || g.Config.Height != 10 {
		t.Errorf("screen: got %dx%d, want 20x10", g.Config.Width, g.Config.Height)
	}
	r, gr, b, _ := g.Image[0].At(15, 5).RGBA()
	if d := absDiff(r>>8, 240) + absDiff(gr>>8, 240) + absDiff(b>>8, 240); d > 9 {
		t.Errorf("pixel (15,5): got %d,%d,%d, want about 240,240,240", r>>8, gr>>8, b>>8)
	}
}

func TestGIFQuality(t *testing.T) {
	cases := map[int]int{100: 1, 1: 30, 0: gifQuality(DefaultQuality), 500: gifQuality(DefaultQuality), 50: 15}
	for in, want := range cases {
		if got := gifQuality(in); got != want {
			t.Errorf("gifQuality(%d): got %d, want %d", in, got, want)
		}
	}
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}
