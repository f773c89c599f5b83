package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// New creates an empty manifest with defaults.
func New(profileName string) *Manifest {
	return &Manifest{
		Version:     SupportedManifestVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Profile:     profileName,
		BasePath:    "./",
		Animations:  make(map[string]Animation),
	}
}

// ComputeStats recalculates aggregate statistics from animations.
func (m *Manifest) ComputeStats() {
	var s Stats
	s.TotalAnimations = len(m.Animations)
	for _, a := range m.Animations {
		s.TotalFrames += a.Frames
		s.TotalInputFrames += a.Source.Frames
		s.TotalOutputBytes += a.Size
		if a.Poster != nil {
			s.TotalOutputBytes += a.Poster.Size
		}
	}
	s.DroppedFrames = s.TotalInputFrames - s.TotalFrames
	if s.DroppedFrames < 0 {
		s.DroppedFrames = 0
	}
	m.Stats = s
}

// Load reads a manifest from path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Animations == nil {
		m.Animations = make(map[string]Animation)
	}
	return &m, nil
}

// LoadOrNew reads the manifest at path, or starts a new one when the file
// does not exist yet.
func LoadOrNew(path, profileName string) (*Manifest, error) {
	m, err := Load(path)
	if os.IsNotExist(err) {
		return New(profileName), nil
	}
	if err != nil {
		return nil, err
	}
	m.Profile = profileName
	m.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	return m, nil
}

// WriteJSON serializes the manifest to a JSON file with stable ordering.
func WriteJSON(m *Manifest, path string) error {
	m.ComputeStats()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
