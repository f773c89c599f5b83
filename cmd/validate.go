package cmd

import (
	"bytes"
	"fmt"
	"image/gif"
	"os"
	"path/filepath"

	"github.com/AnyUserName/gifcap/internal/hasher"
	"github.com/AnyUserName/gifcap/internal/manifest"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <manifest_path>",
	Short: "Validate a gifcap manifest and check the referenced GIFs",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	manifestPath := args[0]
	if info, err := os.Stat(manifestPath); err == nil && info.IsDir() {
		manifestPath = filepath.Join(manifestPath, manifest.FileName)
	}

	m, err := manifest.Load(manifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	baseDir := filepath.Join(filepath.Dir(manifestPath), m.BasePath)
	errs := validateManifest(m, baseDir)

	if len(errs) == 0 {
		fmt.Printf("  %s Manifest is valid\n", okMark("✓"))
		printer.Printf("  %s %d animations, %d frames, all files present and decodable\n",
			okMark("✓"), m.Stats.TotalAnimations, m.Stats.TotalFrames)
		return nil
	}

	fmt.Printf("  %s Manifest has %d error(s):\n", failMark("✗"), len(errs))
	for _, e := range errs {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

func validateManifest(m *manifest.Manifest, baseDir string) []string {
	var errs []string

	// Check version.
	if m.Version != manifest.SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	seenPaths := map[string]string{}
	frames := 0
	for name, a := range m.Animations {
		frames += a.Frames
		if a.Width <= 0 || a.Height <= 0 {
			errs = append(errs, fmt.Sprintf("animation %q: invalid dimensions %dx%d", name, a.Width, a.Height))
		}
		if a.Frames <= 0 {
			errs = append(errs, fmt.Sprintf("animation %q: no frames", name))
		}
		if a.Hash == "" {
			errs = append(errs, fmt.Sprintf("animation %q: missing hash", name))
		}
		if a.Path == "" {
			errs = append(errs, fmt.Sprintf("animation %q: missing path", name))
			continue
		}

		// Check duplicate paths.
		if other, ok := seenPaths[a.Path]; ok {
			errs = append(errs, fmt.Sprintf("animation %q: path %q also used by %q", name, a.Path, other))
		}
		seenPaths[a.Path] = name

		data, err := os.ReadFile(filepath.Join(baseDir, a.Path))
		if err != nil {
			errs = append(errs, fmt.Sprintf("animation %q: file not found: %s", name, a.Path))
			continue
		}
		errs = append(errs, checkGIF(name, a, data)...)

		if a.Poster != nil {
			info, err := os.Stat(filepath.Join(baseDir, a.Poster.Path))
			switch {
			case err != nil:
				errs = append(errs, fmt.Sprintf("animation %q: poster not found: %s", name, a.Poster.Path))
			case a.Poster.Size > 0 && info.Size() != a.Poster.Size:
				errs = append(errs, fmt.Sprintf("animation %q: poster size mismatch: manifest=%d, disk=%d",
					name, a.Poster.Size, info.Size()))
			}
		}
	}

	// Verify stats consistency.
	if m.Stats.TotalAnimations != len(m.Animations) {
		errs = append(errs, fmt.Sprintf("stats.total_animations mismatch: %d != %d",
			m.Stats.TotalAnimations, len(m.Animations)))
	}
	if m.Stats.TotalFrames != frames {
		errs = append(errs, fmt.Sprintf("stats.total_frames mismatch: %d != %d", m.Stats.TotalFrames, frames))
	}
	return errs
}

// checkGIF compares one GIF file against its manifest entry.
func checkGIF(name string, a manifest.Animation, data []byte) []string {
	var errs []string
	if a.Size > 0 && int64(len(data)) != a.Size {
		errs = append(errs, fmt.Sprintf("animation %q: size mismatch: manifest=%d, disk=%d", name, a.Size, len(data)))
	}
	if a.Hash != "" {
		if got := hasher.ContentHash(data, len(a.Hash)); got != a.Hash {
			errs = append(errs, fmt.Sprintf("animation %q: hash mismatch: manifest=%s, disk=%s", name, a.Hash, got))
		}
	}

	cfg, err := gif.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return append(errs, fmt.Sprintf("animation %q: not a GIF: %v", name, err))
	}
	if cfg.Width != a.Width || cfg.Height != a.Height {
		errs = append(errs, fmt.Sprintf("animation %q: screen %dx%d, manifest %dx%d",
			name, cfg.Width, cfg.Height, a.Width, a.Height))
	}
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return append(errs, fmt.Sprintf("animation %q: decode: %v", name, err))
	}
	if len(g.Image) != a.Frames {
		errs = append(errs, fmt.Sprintf("animation %q: %d frames on disk, manifest %d", name, len(g.Image), a.Frames))
	}
	return errs
}
