package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func sampleAnimation() Animation {
	return Animation{
		Source:     SourceInfo{Path: "frames", Kind: "dir", Frames: 30, Width: 1280, Height: 720},
		Width:      480,
		Height:     270,
		Frames:     25,
		DurationMS: 3000,
		Loop:       0,
		Size:       120000,
		Hash:       "abcd1234ef567890",
		Path:       "clip.abcd1234.gif",
		Poster: &Still{
			Format: "png", Width: 480, Height: 270, Size: 5000,
			Hash: "0011223344556677", Path: "clip.abcd1234.poster.png",
		},
	}
}

func TestManifestRoundtrip(t *testing.T) {
	m := New("test-profile")
	m.BuildInfo = &BuildInfo{Workers: 4, Quality: 15, FPS: 10}
	m.Animations["clip"] = sampleAnimation()
	m.ComputeStats()

	// Write to temp file.
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := WriteJSON(m, path); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Read back and parse.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var m2 Manifest
	if err := json.Unmarshal(data, &m2); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	// Verify fields.
	if m2.Version != SupportedManifestVersion {
		t.Errorf("version: got %d, want %d", m2.Version, SupportedManifestVersion)
	}
	if m2.Profile != "test-profile" {
		t.Errorf("profile: got %q", m2.Profile)
	}
	if m2.BuildInfo == nil {
		t.Fatal("build_info missing")
	}
	if m2.BuildInfo.Workers != 4 || m2.BuildInfo.Quality != 15 || m2.BuildInfo.FPS != 10 {
		t.Errorf("build_info: got %+v", *m2.BuildInfo)
	}

	a, ok := m2.Animations["clip"]
	if !ok {
		t.Fatal("animation clip missing")
	}
	if a.Frames != 25 || a.Width != 480 || a.Height != 270 {
		t.Errorf("animation: got %dx%d with %d frames", a.Width, a.Height, a.Frames)
	}
	if a.Poster == nil || a.Poster.Format != "png" {
		t.Errorf("poster: got %+v", a.Poster)
	}

	// Stats.
	if m2.Stats.TotalAnimations != 1 {
		t.Errorf("total_animations: got %d", m2.Stats.TotalAnimations)
	}
	if m2.Stats.TotalOutputBytes != 125000 {
		t.Errorf("total_output_bytes: got %d, want 125000", m2.Stats.TotalOutputBytes)
	}
	if m2.Stats.DroppedFrames != 5 {
		t.Errorf("dropped_frames: got %d, want 5", m2.Stats.DroppedFrames)
	}
}

func TestManifestVersion(t *testing.T) {
	m := New("v-test")
	if m.Version != SupportedManifestVersion {
		t.Errorf("new manifest version: got %d, want %d", m.Version, SupportedManifestVersion)
	}
}

func TestLoadOrNew(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	m, err := LoadOrNew(path, "default")
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if len(m.Animations) != 0 {
		t.Errorf("new manifest has %d animations", len(m.Animations))
	}
	m.Animations["first"] = sampleAnimation()
	if err := WriteJSON(m, path); err != nil {
		t.Fatalf("write: %v", err)
	}

	m2, err := LoadOrNew(path, "small")
	if err != nil {
		t.Fatalf("existing file: %v", err)
	}
	if _, ok := m2.Animations["first"]; !ok {
		t.Error("existing animation dropped on reload")
	}
	if m2.Profile != "small" {
		t.Errorf("profile: got %q, want small", m2.Profile)
	}

	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrNew(path, "default"); err == nil {
		t.Error("corrupt manifest accepted")
	}
}

func TestManifestIgnoresUnknownFields(t *testing.T) {
	// Simulate a future manifest with extra fields.
	raw := `{
		"version": 1,
		"generated_at": "2025-01-01T00:00:00Z",
		"profile": "test",
		"base_path": "./",
		"future_field": "should be ignored",
		"build_info": { "workers": 8, "quality": 15, "fps": 10, "new_flag": true },
		"animations": {},
		"stats": { "total_animations": 0, "total_frames": 0, "total_output_bytes": 0, "new_stat": 42 }
	}`

	var m Manifest
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal with unknown fields: %v", err)
	}
	if m.Version != 1 {
		t.Errorf("version: got %d", m.Version)
	}
	if m.BuildInfo == nil || m.BuildInfo.Workers != 8 {
		t.Error("build_info not parsed correctly")
	}
}
