package profile

import (
	"testing"
	"time"
)

func TestGet_Fallback(t *testing.T) {
	p := Get("nope")
	if p.Name != "nope" {
		t.Errorf("name: got %q, want %q", p.Name, "nope")
	}
	def := Get("default")
	if p.FPS != def.FPS || p.MaxDim != def.MaxDim || p.Quality != def.Quality {
		t.Errorf("unknown profile did not inherit defaults: %+v", p)
	}
	if Known("nope") || !Known("hq") {
		t.Error("Known disagrees with the built-in table")
	}
}

func TestDefault_CaptureSettings(t *testing.T) {
	p := Get("default")
	if p.FPS != 10 || p.Quality != 15 || p.MaxDim != 480 || p.Loop != 0 {
		t.Errorf("default profile: got %+v", p)
	}
	if got := p.FrameDelay(); got != 100*time.Millisecond {
		t.Errorf("frame delay: got %v, want 100ms", got)
	}
}

func TestFitSize(t *testing.T) {
	p := Profile{MaxDim: 480}
	cases := []struct {
		w, h, wantW, wantH int
	}{
		{1920, 1080, 480, 270},
		{1080, 1920, 270, 480},
		{640, 480, 480, 360},
		{300, 201, 300, 200}, // no upscale, even height
		{481, 481, 480, 480},
		{1, 1, 2, 2},
		{1000, 3, 480, 2},
	}
	for _, c := range cases {
		w, h := p.FitSize(c.w, c.h)
		if w != c.wantW || h != c.wantH {
			t.Errorf("FitSize(%d, %d): got %dx%d, want %dx%d", c.w, c.h, w, h, c.wantW, c.wantH)
		}
	}

	w, h := Profile{}.FitSize(1921, 1081)
	if w != 1920 || h != 1080 {
		t.Errorf("unbounded: got %dx%d, want 1920x1080", w, h)
	}
}
