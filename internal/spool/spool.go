// Package spool stores raw RGBA frames in a zstd-compressed file so a
// capture can be fitted once and encoded many times.
//
// Layout: the 4-byte magic "GCSP", a version byte, then one zstd stream
// of frame records. Each record is a little-endian header
// {u16 width, u16 height, u32 delay ms, u32 pixel bytes} followed by the
// RGBA pixels.
package spool

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/klauspost/compress/zstd"
)

const (
	magic   = "GCSP"
	version = 1

	recordHeaderSize = 12
)

var (
	// ErrFormat is returned when the input is not a spool file.
	ErrFormat = errors.New("spool: not a spool file")
	// ErrVersion is returned for spool files from a newer writer.
	ErrVersion = errors.New("spool: unsupported version")
	// ErrCorrupt is returned when a record is inconsistent or truncated.
	ErrCorrupt = errors.New("spool: corrupt record")
	// ErrClosed is returned when writing to a closed Writer.
	ErrClosed = errors.New("spool: writer closed")
)

// Frame is one spooled frame of Width*Height RGBA pixels.
type Frame struct {
	Width  int
	Height int
	Delay  time.Duration
	Pix    []byte
}

// Writer appends frames to a spool.
type Writer struct {
	zw     *zstd.Encoder
	hdr    [recordHeaderSize]byte
	frames int
	closed bool
}

// NewWriter writes the spool header to w and returns a Writer for the
// frame records. Close must be called to flush the stream; it does not
// close w.
func NewWriter(w io.Writer) (*Writer, error) {
	if _, err := io.WriteString(w, magic); err != nil {
		return nil, fmt.Errorf("write spool header: %w", err)
	}
	if _, err := w.Write([]byte{version}); err != nil {
		return nil, fmt.Errorf("write spool header: %w", err)
	}
	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}
	return &Writer{zw: zw}, nil
}

// WriteFrame appends f. Dimensions must fit in 16 bits and Pix must hold
// exactly Width*Height*4 bytes.
func (w *Writer) WriteFrame(f Frame) error {
	if w.closed {
		return ErrClosed
	}
	if f.Width <= 0 || f.Height <= 0 || f.Width > math.MaxUint16 || f.Height > math.MaxUint16 {
		return fmt.Errorf("spool: frame size %dx%d out of range", f.Width, f.Height)
	}
	if want := f.Width * f.Height * 4; len(f.Pix) != want {
		return fmt.Errorf("spool: frame has %d pixel bytes, want %d", len(f.Pix), want)
	}
	ms := f.Delay.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	if ms > math.MaxUint32 {
		ms = math.MaxUint32
	}

	binary.LittleEndian.PutUint16(w.hdr[0:], uint16(f.Width))
	binary.LittleEndian.PutUint16(w.hdr[2:], uint16(f.Height))
	binary.LittleEndian.PutUint32(w.hdr[4:], uint32(ms))
	binary.LittleEndian.PutUint32(w.hdr[8:], uint32(len(f.Pix)))
	if _, err := w.zw.Write(w.hdr[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.zw.Write(f.Pix); err != nil {
		return fmt.Errorf("write frame pixels: %w", err)
	}
	w.frames++
	return nil
}

// Frames returns the number of frames written.
func (w *Writer) Frames() int { return w.frames }

// Close flushes the compressed stream.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.zw.Close()
}

// Reader replays frames from a spool.
type Reader struct {
	zr  *zstd.Decoder
	hdr [recordHeaderSize]byte
}

// NewReader checks the spool header and prepares to read frame records.
func NewReader(r io.Reader) (*Reader, error) {
	var head [len(magic) + 1]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if string(head[:len(magic)]) != magic {
		return nil, ErrFormat
	}
	if head[len(magic)] != version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, head[len(magic)])
	}
	zr, err := zstd.NewReader(r,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(true),
	)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	return &Reader{zr: zr}, nil
}

// Next returns the next frame, or io.EOF after the last one.
func (r *Reader) Next() (Frame, error) {
	if _, err := io.ReadFull(r.zr, r.hdr[:]); err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("%w: header: %v", ErrCorrupt, err)
	}
	f := Frame{
		Width:  int(binary.LittleEndian.Uint16(r.hdr[0:])),
		Height: int(binary.LittleEndian.Uint16(r.hdr[2:])),
		Delay:  time.Duration(binary.LittleEndian.Uint32(r.hdr[4:])) * time.Millisecond,
	}
	n := int(binary.LittleEndian.Uint32(r.hdr[8:]))
	if f.Width == 0 || f.Height == 0 || n != f.Width*f.Height*4 {
		return Frame{}, fmt.Errorf("%w: %dx%d with %d pixel bytes", ErrCorrupt, f.Width, f.Height, n)
	}
	f.Pix = make([]byte, n)
	if _, err := io.ReadFull(r.zr, f.Pix); err != nil {
		return Frame{}, fmt.Errorf("%w: pixels: %v", ErrCorrupt, err)
	}
	return f, nil
}

// Close releases the decoder. It does not close the underlying reader.
func (r *Reader) Close() {
	r.zr.Close()
}
