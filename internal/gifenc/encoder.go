// Package gifenc writes animated GIF89a streams from raw RGB(A) frames.
//
// Each frame is reduced to a 256-color palette with the NeuQuant
// quantizer and its indices are LZW-compressed into the stream. An
// Encoder is driven as Start, AddFrame (once per frame), Finish, after
// which Bytes holds the complete file. Encoders are not safe for
// concurrent use; run one per in-flight encode.
package gifenc

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"time"

	"github.com/AnyUserName/gifcap/internal/lzw"
	"github.com/AnyUserName/gifcap/internal/neuquant"
	"github.com/AnyUserName/gifcap/internal/sink"
)

const (
	// MaxDimension is the largest width or height a GIF can declare.
	MaxDimension = 65535

	// DefaultQuality is the quality used when Options.Quality is zero.
	DefaultQuality = 10

	// DisposeAuto lets the encoder pick a disposal method: restore to
	// background for frames with a transparent color, unspecified otherwise.
	DisposeAuto = -1

	// LoopNone omits the NETSCAPE2.0 block so the animation plays once.
	LoopNone = -1
	// LoopForever repeats the animation indefinitely.
	LoopForever = 0
	// MaxLoop is the largest repeat count the NETSCAPE2.0 block holds.
	MaxLoop = 65535

	minCodeSize = 8
)

// Disposal methods.
const (
	DisposeUnspecified = 0
	DisposeNone        = 1
	DisposeBackground  = 2
	DisposePrevious    = 3
)

// SampleFactor maps a quality setting to the quantizer's sampling factor.
//
// Quality runs from 1 to 30 and lower is better: 1 trains the palette on
// every pixel, 30 on about one pixel in thirty. Values outside the range
// are clamped; 0 and below select the best quality.
func SampleFactor(quality int) int {
	if quality < neuquant.MinSampleFactor {
		return neuquant.MinSampleFactor
	}
	if quality > neuquant.MaxSampleFactor {
		return neuquant.MaxSampleFactor
	}
	return quality
}

// Centiseconds rounds d to the GIF delay unit.
func Centiseconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	cs := int(math.Round(float64(d) / float64(10*time.Millisecond)))
	if cs > math.MaxUint16 {
		cs = math.MaxUint16
	}
	return cs
}

// Options configures an Encoder. Use DefaultOptions as the starting point;
// the zero value plays once with disposal 0 and no transparency.
type Options struct {
	Delay         time.Duration // default frame delay
	Loop          int           // LoopNone, LoopForever or a repeat count
	Quality       int           // 1..30, lower is better; 0 means DefaultQuality
	Dispose       int           // DisposeAuto or 0..7
	Transparent   *color.RGBA   // color to mark transparent in every frame
	GlobalPalette bool          // learn one palette from the first frame and reuse it

	// Logf, when set, receives one line per written frame.
	Logf func(format string, args ...any)
}

// DefaultOptions returns options matching the capture defaults: 10 fps,
// infinite loop, quality 10, automatic disposal, per-frame palettes.
func DefaultOptions() Options {
	return Options{
		Delay:   100 * time.Millisecond,
		Loop:    LoopForever,
		Quality: DefaultQuality,
		Dispose: DisposeAuto,
	}
}

// Frame is one raw frame. Pix holds Width*Height pixels of Channels bytes
// each (4 for RGBA, 3 for RGB); alpha is ignored.
type Frame struct {
	Pix      []byte
	Channels int // 3 or 4; 0 means 4

	Delay       time.Duration
	Dispose     int         // DisposeAuto or 0..7
	Transparent *color.RGBA // nil for an opaque frame
}

type state int

const (
	stateCreated state = iota
	stateStarted
	stateFinished
)

// Encoder writes one animated GIF.
type Encoder struct {
	width, height int
	opts          Options

	state      state
	frameCount int
	out        *sink.Sink

	global *neuquant.Quantizer // non-nil once learned in global palette mode
	rgb    []byte              // scratch, one frame of R,G,B
}

// New returns an encoder for width x height frames. No bytes are written
// until Start.
func New(width, height int, opts Options) (*Encoder, error) {
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return nil, ErrInvalidDimensions
	}
	if opts.Dispose < DisposeAuto || opts.Dispose > 7 {
		return nil, ErrInvalidDispose
	}
	if !validLoop(opts.Loop) {
		return nil, ErrInvalidLoop
	}
	if opts.Quality == 0 {
		opts.Quality = DefaultQuality
	}
	return &Encoder{
		width:  width,
		height: height,
		opts:   opts,
		out:    sink.New(0),
	}, nil
}

// Width returns the canvas width.
func (e *Encoder) Width() int { return e.width }

// Height returns the canvas height.
func (e *Encoder) Height() int { return e.height }

// FrameCount returns the number of frames written so far.
func (e *Encoder) FrameCount() int { return e.frameCount }

// Finished reports whether Finish has completed.
func (e *Encoder) Finished() bool { return e.state == stateFinished }

func (e *Encoder) configurable() error {
	if e.state == stateFinished {
		return ErrFinished
	}
	if e.frameCount > 0 {
		return ErrConfigLocked
	}
	return nil
}

// SetDelay sets the default frame delay.
func (e *Encoder) SetDelay(d time.Duration) error {
	if err := e.configurable(); err != nil {
		return err
	}
	e.opts.Delay = d
	return nil
}

// SetLoop sets the loop count: LoopNone, LoopForever or a repeat count.
func (e *Encoder) SetLoop(n int) error {
	if err := e.configurable(); err != nil {
		return err
	}
	if !validLoop(n) {
		return ErrInvalidLoop
	}
	e.opts.Loop = n
	return nil
}

func validLoop(n int) bool { return n >= LoopNone && n <= MaxLoop }

// SetQuality sets the quantizer quality, 1 (best) to 30 (fastest).
func (e *Encoder) SetQuality(q int) error {
	if err := e.configurable(); err != nil {
		return err
	}
	e.opts.Quality = q
	return nil
}

// SetDispose sets the default disposal method.
func (e *Encoder) SetDispose(code int) error {
	if err := e.configurable(); err != nil {
		return err
	}
	if code < DisposeAuto || code > 7 {
		return ErrInvalidDispose
	}
	e.opts.Dispose = code
	return nil
}

// SetTransparent sets the default transparent color; nil disables it.
func (e *Encoder) SetTransparent(c *color.RGBA) error {
	if err := e.configurable(); err != nil {
		return err
	}
	e.opts.Transparent = c
	return nil
}

// Start writes the signature. It must be called exactly once.
func (e *Encoder) Start() error {
	switch e.state {
	case stateStarted:
		return ErrStarted
	case stateFinished:
		return ErrFinished
	}
	if _, err := e.out.WriteString(signature); err != nil {
		return err
	}
	e.state = stateStarted
	return nil
}

func (e *Encoder) ready() error {
	switch e.state {
	case stateCreated:
		return ErrNotStarted
	case stateFinished:
		return ErrFinished
	}
	return nil
}

// AddRGBA adds a frame of RGBA pixels using the encoder's default delay,
// disposal and transparency.
func (e *Encoder) AddRGBA(pix []byte) error {
	return e.AddFrame(e.defaultFrame(pix, 4))
}

// AddRGB adds a frame of packed RGB pixels using the encoder's defaults.
func (e *Encoder) AddRGB(pix []byte) error {
	return e.AddFrame(e.defaultFrame(pix, 3))
}

// AddImage adds img using the encoder's defaults. Its bounds must match
// the encoder's dimensions.
func (e *Encoder) AddImage(img image.Image) error {
	if err := e.ready(); err != nil {
		return err
	}
	b := img.Bounds()
	if b.Dx() != e.width || b.Dy() != e.height {
		return &FrameSizeError{Got: b.Dx() * b.Dy() * 4, Want: e.width * e.height * 4, Channels: 4}
	}
	return e.AddRGBA(toNRGBA(img).Pix)
}

func (e *Encoder) defaultFrame(pix []byte, channels int) Frame {
	return Frame{
		Pix:         pix,
		Channels:    channels,
		Delay:       e.opts.Delay,
		Dispose:     e.opts.Dispose,
		Transparent: e.opts.Transparent,
	}
}

// AddFrame quantizes, compresses and writes f. Out-of-order calls and
// malformed frames are rejected without writing anything.
func (e *Encoder) AddFrame(f Frame) error {
	if err := e.ready(); err != nil {
		return err
	}
	channels := f.Channels
	if channels == 0 {
		channels = 4
	}
	want := e.width * e.height * channels
	if (channels != 3 && channels != 4) || len(f.Pix) != want {
		return &FrameSizeError{Got: len(f.Pix), Want: want, Channels: channels}
	}
	if f.Dispose < DisposeAuto || f.Dispose > 7 {
		return ErrInvalidDispose
	}

	rgb := e.stripAlpha(f.Pix, channels)
	q := e.global
	if q == nil {
		q = neuquant.Learn(rgb, SampleFactor(e.opts.Quality))
		if e.opts.GlobalPalette {
			e.global = q
		}
	}
	var used [256]bool
	indexed := q.MapPixels(rgb, &used)

	transparent := f.Transparent != nil
	var transIndex byte
	if transparent {
		transIndex = closestUsed(q.Palette(), &used, *f.Transparent)
	}
	dispose := f.Dispose
	if dispose == DisposeAuto {
		dispose = DisposeUnspecified
		if transparent {
			dispose = DisposeBackground
		}
	}

	if err := e.writeFrameHeader(q.Palette(), dispose, transparent, transIndex, Centiseconds(f.Delay)); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	start := e.out.Len()
	if err := lzw.Compress(e.out, indexed, minCodeSize); err != nil {
		return err
	}
	e.frameCount++

	if e.opts.Logf != nil {
		e.opts.Logf("frame %d: %d colors, %d bytes of image data", e.frameCount, countUsed(&used), e.out.Len()-start)
	}
	return nil
}

// writeFrameHeader writes every block that precedes a frame's image
// data. The first frame also carries the screen descriptor, the global
// table and the loop block.
func (e *Encoder) writeFrameHeader(pal []byte, dispose int, transparent bool, transIndex byte, delay int) error {
	first := e.frameCount == 0
	if first {
		if err := writeLogicalScreen(e.out, e.width, e.height, tableSizeField); err != nil {
			return err
		}
		if err := writeColorTable(e.out, pal, tableEntries); err != nil {
			return err
		}
		if e.opts.Loop >= 0 {
			if err := writeLoopExtension(e.out, e.opts.Loop); err != nil {
				return err
			}
		}
	}
	if err := writeGraphicControl(e.out, dispose, transparent, transIndex, delay); err != nil {
		return err
	}
	local := !first && !e.opts.GlobalPalette
	if err := writeImageDescriptor(e.out, e.width, e.height, local); err != nil {
		return err
	}
	if local {
		return writeColorTable(e.out, pal, tableEntries)
	}
	return nil
}

// Finish writes the trailer and freezes the output. Finishing with no
// frames yields a valid empty stream: signature, screen descriptor with a
// two-entry black global table, trailer.
func (e *Encoder) Finish() error {
	if err := e.ready(); err != nil {
		return err
	}
	if e.frameCount == 0 {
		if err := writeLogicalScreen(e.out, e.width, e.height, 0); err != nil {
			return err
		}
		if err := writeColorTable(e.out, nil, 2); err != nil {
			return err
		}
	}
	if err := writeTrailer(e.out); err != nil {
		return err
	}
	e.out.Freeze()
	e.state = stateFinished
	e.rgb = nil
	return nil
}

// Bytes returns the bytes written so far. After Finish it is the
// complete GIF file.
func (e *Encoder) Bytes() []byte { return e.out.Bytes() }

// WriteTo writes the encoded bytes to w.
func (e *Encoder) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(e.out.Bytes())
	return int64(n), err
}

func (e *Encoder) stripAlpha(pix []byte, channels int) []byte {
	if channels == 3 {
		return pix
	}
	n := e.width * e.height * 3
	if cap(e.rgb) < n {
		e.rgb = make([]byte, n)
	}
	rgb := e.rgb[:n]
	for i, j := 0, 0; j < n; i, j = i+4, j+3 {
		rgb[j] = pix[i]
		rgb[j+1] = pix[i+1]
		rgb[j+2] = pix[i+2]
	}
	return rgb
}

// closestUsed returns the used palette entry nearest to c by squared
// Euclidean distance, or 0 if nothing is used.
func closestUsed(pal []byte, used *[256]bool, c color.RGBA) byte {
	best, bestD := 0, math.MaxInt
	for i := 0; i < len(pal)/3; i++ {
		if !used[i] {
			continue
		}
		dr := int(c.R) - int(pal[i*3])
		dg := int(c.G) - int(pal[i*3+1])
		db := int(c.B) - int(pal[i*3+2])
		if d := dr*dr + dg*dg + db*db; d < bestD {
			best, bestD = i, d
		}
	}
	return byte(best)
}

func countUsed(used *[256]bool) int {
	n := 0
	for _, u := range used {
		if u {
			n++
		}
	}
	return n
}

// toNRGBA returns img as non-premultiplied RGBA with origin (0,0).
func toNRGBA(img image.Image) *image.NRGBA {
	if m, ok := img.(*image.NRGBA); ok && m.Rect.Min == (image.Point{}) && m.Stride == 4*m.Rect.Dx() {
		return m
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
