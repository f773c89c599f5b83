package cmd

import (
	"fmt"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/AnyUserName/gifcap/internal/manifest"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.gif|out_dir|manifest>",
	Short: "Describe a GIF file or the animations in an output directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(_ *cobra.Command, args []string) error {
	path := args[0]

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() && strings.EqualFold(filepath.Ext(path), ".gif") {
		return inspectGIF(path)
	}

	// If path is a directory, look for manifest inside.
	if info.IsDir() {
		path = filepath.Join(path, manifest.FileName)
	}
	m, err := manifest.Load(path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	printStats(m)
	return nil
}

// gifSummary is what inspect reports about one decoded GIF.
type gifSummary struct {
	Width, Height int
	Frames        int
	Loop          int // image/gif convention: -1 once, 0 forever
	Duration      time.Duration
	MinDelay      int // centiseconds
	MaxDelay      int
	GlobalColors  int
	LocalPalettes int
	Transparent   int
	Disposal      map[byte]int
}

func summarizeGIF(g *gif.GIF) gifSummary {
	s := gifSummary{
		Width:    g.Config.Width,
		Height:   g.Config.Height,
		Frames:   len(g.Image),
		Loop:     g.LoopCount,
		Disposal: map[byte]int{},
	}
	var global color.Palette
	if p, ok := g.Config.ColorModel.(color.Palette); ok {
		global = p
		s.GlobalColors = len(p)
	}
	for i, m := range g.Image {
		d := g.Delay[i]
		s.Duration += time.Duration(d) * 10 * time.Millisecond
		if i == 0 || d < s.MinDelay {
			s.MinDelay = d
		}
		if d > s.MaxDelay {
			s.MaxDelay = d
		}
		if !samePalette(m.Palette, global) {
			s.LocalPalettes++
		}
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a == 0 {
				s.Transparent++
				break
			}
		}
		if i < len(g.Disposal) {
			s.Disposal[g.Disposal[i]]++
		}
	}
	return s
}

// samePalette compares palettes entry by entry, skipping entries the
// decoder blanked for transparency.
func samePalette(a, b color.Palette) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ar, ag, ab, aa := a[i].RGBA()
		br, bg, bb, ba := b[i].RGBA()
		if aa == 0 || ba == 0 {
			continue
		}
		if ar != br || ag != bg || ab != bb {
			return false
		}
	}
	return true
}

func inspectGIF(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	s := summarizeGIF(g)
	info, err := f.Stat()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("  %s       %s\n", label("File:"), truncKey(path, 60))
	fmt.Printf("  %s       %dx%d\n", label("Size:"), s.Width, s.Height)
	printer.Printf("  %s     %d\n", label("Frames:"), s.Frames)
	fmt.Printf("  %s   %s\n", label("Duration:"), s.Duration)
	fmt.Printf("  %s     %d-%d cs\n", label("Delays:"), s.MinDelay, s.MaxDelay)
	fmt.Printf("  %s       %s\n", label("Loop:"), loopLabel(s.Loop))
	fmt.Printf("  %s    %d global colors, %d local palettes\n", label("Palette:"), s.GlobalColors, s.LocalPalettes)
	if s.Transparent > 0 {
		fmt.Printf("  %s %d frames\n", label("Transparent:"), s.Transparent)
	}
	var codes []int
	for d := range s.Disposal {
		codes = append(codes, int(d))
	}
	sort.Ints(codes)
	var parts []string
	for _, d := range codes {
		parts = append(parts, fmt.Sprintf("%d×%d", d, s.Disposal[byte(d)]))
	}
	if len(parts) > 0 {
		fmt.Printf("  %s   %s\n", label("Disposal:"), strings.Join(parts, ", "))
	}
	fmt.Printf("  %s  %s\n", label("File size:"), formatBytes(info.Size()))
	fmt.Println()
	return nil
}

func printStats(m *manifest.Manifest) {
	fmt.Println()
	fmt.Printf("  Manifest version: %d\n", m.Version)
	fmt.Printf("  Generated:        %s\n", m.GeneratedAt)
	fmt.Printf("  Profile:          %s\n", m.Profile)
	if m.BuildInfo != nil {
		fmt.Printf("  Workers:          %d\n", m.BuildInfo.Workers)
		fmt.Printf("  Quality / FPS:    %d / %d\n", m.BuildInfo.Quality, m.BuildInfo.FPS)
	}
	fmt.Println()

	s := m.Stats
	printer.Printf("  Animations:       %d\n", s.TotalAnimations)
	printer.Printf("  Frames:           %d of %d input\n", s.TotalFrames, s.TotalInputFrames)
	if s.DroppedFrames > 0 {
		printer.Printf("  Dropped:          %d (range or dedupe)\n", s.DroppedFrames)
	}
	fmt.Printf("  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	fmt.Println()

	// Largest animations first.
	names := make([]string, 0, len(m.Animations))
	for name := range m.Animations {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return m.Animations[names[i]].Size > m.Animations[names[j]].Size
	})
	if len(names) > 0 {
		fmt.Println("  Animations:")
		for _, name := range names {
			a := m.Animations[name]
			fmt.Printf("    %-30s %4dx%-4d %4d frames %8s  %s\n",
				truncKey(name, 30), a.Width, a.Height, a.Frames,
				formatBytes(a.Size), paletteLabel(a.GlobalPalette))
		}
		fmt.Println()
	}

	// Warnings.
	var warnings []string
	for _, name := range names {
		a := m.Animations[name]
		if a.Frames == 0 {
			warnings = append(warnings, fmt.Sprintf("animation %q has no frames", name))
		}
		if a.Frames == 1 {
			warnings = append(warnings, fmt.Sprintf("animation %q is a single still frame", name))
		}
	}
	if len(warnings) > 0 {
		fmt.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    %s %s\n", warnMark("⚠"), w)
		}
		fmt.Println()
	}
}
