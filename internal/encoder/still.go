package encoder

import (
	"image"
	"image/color"
)

// palettize returns img as a paletted image when it has at most 256
// distinct colors.
func palettize(img image.Image) (*image.Paletted, bool) {
	b := img.Bounds()
	index := make(map[color.NRGBA]uint8, 256)
	var pal color.Palette
	out := image.NewPaletted(b, nil)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i, ok := index[c]
			if !ok {
				if len(pal) == 256 {
					return nil, false
				}
				i = uint8(len(pal))
				index[c] = i
				pal = append(pal, c)
			}
			out.SetColorIndex(x, y, i)
		}
	}
	out.Palette = pal
	return out, true
}

// opaqueRGBA reinterprets an opaque NRGBA frame as RGBA, which the JPEG
// writer converts without going through the generic color path. Other
// images are returned unchanged.
func opaqueRGBA(img image.Image) image.Image {
	n, ok := img.(*image.NRGBA)
	if !ok || !n.Opaque() {
		return img
	}
	return &image.RGBA{Pix: n.Pix, Stride: n.Stride, Rect: n.Rect}
}
