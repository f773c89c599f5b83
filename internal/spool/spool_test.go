package spool

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"
)

func testFrame(w, h int, seed byte, delay time.Duration) Frame {
	pix := make([]byte, w*h*4)
	for i := range pix {
		pix[i] = seed + byte(i*7)
	}
	return Frame{Width: w, Height: h, Delay: delay, Pix: pix}
}

func TestRoundTrip(t *testing.T) {
	frames := []Frame{
		testFrame(16, 8, 1, 100*time.Millisecond),
		testFrame(16, 8, 2, 40*time.Millisecond),
		testFrame(3, 5, 3, 0),
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, f := range frames {
		if err := w.WriteFrame(f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if w.Frames() != len(frames) {
		t.Errorf("frames: got %d, want %d", w.Frames(), len(frames))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("GCSP\x01")) {
		t.Fatalf("header: got % x", buf.Bytes()[:5])
	}

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	for i, want := range frames {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got.Width != want.Width || got.Height != want.Height || got.Delay != want.Delay {
			t.Errorf("frame %d: got %dx%d %v, want %dx%d %v", i,
				got.Width, got.Height, got.Delay, want.Width, want.Height, want.Delay)
		}
		if !bytes.Equal(got.Pix, want.Pix) {
			t.Errorf("frame %d: pixels differ", i)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("after last frame: got %v, want io.EOF", err)
	}
}

func TestEmptySpool(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("got %v, want io.EOF", err)
	}
}

func TestWriteFrame_Validation(t *testing.T) {
	w, err := NewWriter(io.Discard)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	if err := w.WriteFrame(Frame{Width: 2, Height: 2, Pix: make([]byte, 15)}); err == nil {
		t.Error("short pixel buffer accepted")
	}
	if err := w.WriteFrame(Frame{Width: 70000, Height: 1, Pix: make([]byte, 280000)}); err == nil {
		t.Error("oversized frame accepted")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.WriteFrame(testFrame(1, 1, 0, 0)); !errors.Is(err, ErrClosed) {
		t.Errorf("after close: got %v, want ErrClosed", err)
	}
}

func TestNewReader_BadHeader(t *testing.T) {
	if _, err := NewReader(bytes.NewReader([]byte("GIF89a"))); !errors.Is(err, ErrFormat) {
		t.Errorf("wrong magic: got %v, want ErrFormat", err)
	}
	if _, err := NewReader(bytes.NewReader([]byte("GC"))); !errors.Is(err, ErrFormat) {
		t.Errorf("truncated: got %v, want ErrFormat", err)
	}
	if _, err := NewReader(bytes.NewReader([]byte("GCSP\x09"))); !errors.Is(err, ErrVersion) {
		t.Errorf("future version: got %v, want ErrVersion", err)
	}
}

func TestNext_Truncated(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	// A 32x32 record header promising 4096 pixel bytes, cut off after 100.
	w.zw.Write([]byte{32, 0, 32, 0, 0, 0, 0, 0, 0, 16, 0, 0})
	w.zw.Write(make([]byte, 100))
	w.Close()

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	if _, err := r.Next(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("truncated record: got %v, want ErrCorrupt", err)
	}
}

func TestNext_SizeMismatch(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	w.zw.Write([]byte{2, 0, 2, 0, 0, 0, 0, 0, 5, 0, 0, 0})
	w.zw.Write(make([]byte, 5))
	w.Close()

	r, err := NewReader(&buf)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer r.Close()
	if _, err := r.Next(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("size mismatch: got %v, want ErrCorrupt", err)
	}
}
