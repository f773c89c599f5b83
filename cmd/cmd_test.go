package cmd

import (
	"bytes"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AnyUserName/gifcap/internal/gifenc"
	"github.com/AnyUserName/gifcap/internal/hasher"
	"github.com/AnyUserName/gifcap/internal/manifest"
)

func TestParseHexColor(t *testing.T) {
	c, err := parseHexColor("#FF8000")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c != (color.RGBA{R: 255, G: 128, B: 0, A: 255}) {
		t.Errorf("got %v", c)
	}
	if c2, _ := parseHexColor("ff8000"); c2 != c {
		t.Errorf("without #: got %v", c2)
	}
	for _, bad := range []string{"", "fff", "GG0000", "#1234567"} {
		if _, err := parseHexColor(bad); err == nil {
			t.Errorf("%q accepted", bad)
		}
	}
}

func TestProfileFlags_Resolve(t *testing.T) {
	none := func(string) bool { return false }
	all := func(string) bool { return true }

	p, err := profileFlags{name: "default"}.resolve(none)
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if p.Quality != 15 || p.FPS != 10 || p.Loop != 0 {
		t.Errorf("defaults: got %+v", p)
	}

	p, err = profileFlags{name: "default", quality: 3, fps: 25, maxDim: 200, loop: -1, globalPalette: true}.resolve(all)
	if err != nil {
		t.Fatalf("overrides: %v", err)
	}
	if p.Quality != 3 || p.FPS != 25 || p.MaxDim != 200 || p.Loop != -1 || !p.GlobalPalette || p.Dedupe {
		t.Errorf("overrides: got %+v", p)
	}

	for _, pf := range []profileFlags{
		{name: "default", quality: 31},
		{name: "default", fps: -1},
		{name: "default", maxDim: -5},
		{name: "default", loop: -2},
	} {
		if _, err := pf.resolve(all); err == nil {
			t.Errorf("%+v accepted", pf)
		}
	}
}

func writeTestGIF(t *testing.T, dir, name string, frames int) manifest.Animation {
	t.Helper()
	enc, err := gifenc.New(8, 6, gifenc.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	enc.Start()
	for i := 0; i < frames; i++ {
		pix := bytes.Repeat([]byte{byte(i * 40), 90, 200, 255}, 8*6)
		if err := enc.AddRGBA(pix); err != nil {
			t.Fatal(err)
		}
	}
	enc.Finish()
	data := enc.Bytes()
	path := name + ".gif"
	if err := os.WriteFile(filepath.Join(dir, path), data, 0o644); err != nil {
		t.Fatal(err)
	}
	return manifest.Animation{
		Width: 8, Height: 6, Frames: frames,
		Size: int64(len(data)), Hash: hasher.ContentHash(data, 16), Path: path,
	}
}

func TestValidateManifest(t *testing.T) {
	dir := t.TempDir()
	m := manifest.New("default")
	m.Animations["a"] = writeTestGIF(t, dir, "a", 3)
	m.ComputeStats()

	if errs := validateManifest(m, dir); len(errs) != 0 {
		t.Fatalf("valid manifest: %v", errs)
	}

	bad := m.Animations["a"]
	bad.Frames = 4
	bad.Width = 9
	m.Animations["a"] = bad
	m.ComputeStats()
	errs := validateManifest(m, dir)
	joined := strings.Join(errs, "\n")
	for _, want := range []string{"frames on disk", "screen 8x6"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in %v", want, errs)
		}
	}

	m.Animations["gone"] = manifest.Animation{Width: 1, Height: 1, Frames: 1, Hash: "x", Path: "gone.gif"}
	errs = validateManifest(m, dir)
	if !strings.Contains(strings.Join(errs, "\n"), "file not found") {
		t.Errorf("missing file not reported: %v", errs)
	}
	if !strings.Contains(strings.Join(errs, "\n"), "stats.total_animations") {
		t.Errorf("stale stats not reported: %v", errs)
	}
}

func TestValidateManifest_HashMismatch(t *testing.T) {
	dir := t.TempDir()
	m := manifest.New("default")
	a := writeTestGIF(t, dir, "a", 2)
	a.Hash = "0000000000000000"
	m.Animations["a"] = a
	m.ComputeStats()

	errs := validateManifest(m, dir)
	if len(errs) != 1 || !strings.Contains(errs[0], "hash mismatch") {
		t.Errorf("got %v", errs)
	}
}

func TestSummarizeGIF(t *testing.T) {
	dir := t.TempDir()
	writeTestGIF(t, dir, "s", 3)
	data, err := os.ReadFile(filepath.Join(dir, "s.gif"))
	if err != nil {
		t.Fatal(err)
	}
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	s := summarizeGIF(g)
	if s.Frames != 3 || s.Width != 8 || s.Height != 6 {
		t.Errorf("summary: got %+v", s)
	}
	if s.Loop != 0 || s.MinDelay != 10 || s.MaxDelay != 10 {
		t.Errorf("timing: got loop %d, delays %d-%d", s.Loop, s.MinDelay, s.MaxDelay)
	}
	if s.GlobalColors != 256 || s.LocalPalettes != 2 {
		t.Errorf("palettes: got %d global colors, %d local", s.GlobalColors, s.LocalPalettes)
	}
}

func TestSamePalette(t *testing.T) {
	a := color.Palette{color.RGBA{1, 2, 3, 255}, color.RGBA{4, 5, 6, 255}}
	b := color.Palette{color.RGBA{1, 2, 3, 255}, color.RGBA{}}
	if !samePalette(a, b) {
		t.Error("transparent entry should be skipped")
	}
	c := color.Palette{color.RGBA{1, 2, 4, 255}, color.RGBA{4, 5, 6, 255}}
	if samePalette(a, c) {
		t.Error("different palettes compared equal")
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[int64]string{
		512:        "512 B",
		1000:       "1,000 B",
		1536:       "1.5 KB",
		2 << 20:    "2.0 MB",
		1500 << 20: "1,500.0 MB",
	}
	for in, want := range cases {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d): got %q, want %q", in, got, want)
		}
	}
}
