package cmd

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/AnyUserName/gifcap/internal/encoder"
	"github.com/AnyUserName/gifcap/internal/gifenc"
	"github.com/AnyUserName/gifcap/internal/manifest"
	"github.com/AnyUserName/gifcap/internal/pipeline"
	"github.com/AnyUserName/gifcap/internal/profile"
	"github.com/AnyUserName/gifcap/internal/timerange"
	"github.com/spf13/cobra"
)

var (
	encodeOutDir        string
	encodeProfile       string
	encodeName          string
	encodeWorkers       int
	encodeQuality       int
	encodeFPS           int
	encodeLoop          int
	encodeMaxDim        int
	encodeGlobalPalette bool
	encodeTransparent   string
	encodeDispose       int
	encodeRange         string
	encodeDedupe        bool
	encodePoster        string
	encodePosterQuality int
)

var encodeCmd = &cobra.Command{
	Use:   "encode <frames_dir|file.spool>",
	Short: "Encode a frame sequence into an animated GIF + manifest",
	Long: `Reads frames from a directory (png, jpg, webp, gif, bmp, tiff; natural
name order) or a spool written by "gifcap spool", fits them to the
profile's maximum dimension and encodes an animated GIF.

Quality runs 1-30 and lower is better: 1 trains each palette on every
pixel, 30 on about one pixel in thirty.

Output filenames are content-addressed: <name>.<hash>.gif`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

func init() {
	f := encodeCmd.Flags()
	f.StringVarP(&encodeOutDir, "out", "o", "./gifcap_out", "output directory")
	f.StringVarP(&encodeProfile, "profile", "p", "default", "capture profile (default, hq, small)")
	f.StringVarP(&encodeName, "name", "n", "", "output base name (default gifcap-<timestamp>)")
	f.IntVarP(&encodeWorkers, "workers", "w", 0, "parallel frame decoders (0 = NumCPU)")
	f.IntVarP(&encodeQuality, "quality", "q", 0, "quality 1-30, lower is better (0 = profile default)")
	f.IntVar(&encodeFPS, "fps", 0, "source frame rate (0 = profile default)")
	f.IntVar(&encodeLoop, "loop", 0, "-1 plays once, 0 loops forever, n repeats n times")
	f.IntVar(&encodeMaxDim, "max-dim", 0, "longest side in pixels (0 = profile default)")
	f.BoolVar(&encodeGlobalPalette, "global-palette", false, "learn one palette from the first frame")
	f.StringVar(&encodeTransparent, "transparent", "", "color to mark transparent, RRGGBB")
	f.IntVar(&encodeDispose, "dispose", gifenc.DisposeAuto, "disposal method 0-7 (-1 = auto)")
	f.StringVar(&encodeRange, "range", "", "time slice to encode, e.g. 0:01-0:03")
	f.BoolVar(&encodeDedupe, "dedupe", false, "merge consecutive identical frames")
	f.StringVar(&encodePoster, "poster", "", "also write the first frame as png, jpeg, webp or gif")
	f.IntVar(&encodePosterQuality, "poster-quality", encoder.DefaultQuality, "poster quality 1-100 (jpeg, webp, gif)")
	rootCmd.AddCommand(encodeCmd)
}

// profileFlags are the command-line overrides of a capture profile.
type profileFlags struct {
	name          string
	quality       int
	fps           int
	maxDim        int
	loop          int
	globalPalette bool
	dedupe        bool
}

// resolve loads the named profile and applies the overrides. changed
// reports whether a flag was set explicitly.
func (pf profileFlags) resolve(changed func(name string) bool) (profile.Profile, error) {
	if !profile.Known(pf.name) {
		logVerbose("unknown profile %q, using defaults", pf.name)
	}
	prof := profile.Get(pf.name)
	if pf.quality != 0 {
		if pf.quality < 1 || pf.quality > 30 {
			return prof, fmt.Errorf("quality %d out of range 1-30", pf.quality)
		}
		prof.Quality = pf.quality
	}
	if pf.fps < 0 {
		return prof, fmt.Errorf("fps %d must be positive", pf.fps)
	}
	if pf.fps > 0 {
		prof.FPS = pf.fps
	}
	if pf.maxDim < 0 || pf.maxDim > gifenc.MaxDimension {
		return prof, fmt.Errorf("max-dim %d out of range", pf.maxDim)
	}
	if pf.maxDim > 0 {
		prof.MaxDim = pf.maxDim
	}
	if changed("loop") {
		if pf.loop < gifenc.LoopNone || pf.loop > gifenc.MaxLoop {
			return prof, fmt.Errorf("loop %d out of range -1..65535", pf.loop)
		}
		prof.Loop = pf.loop
	}
	if changed("global-palette") {
		prof.GlobalPalette = pf.globalPalette
	}
	if changed("dedupe") {
		prof.Dedupe = pf.dedupe
	}
	return prof, nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	input := args[0]
	start := time.Now()

	// Resolve absolute paths.
	absInput, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	absOutput, err := filepath.Abs(encodeOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	prof, err := profileFlags{
		name:          encodeProfile,
		quality:       encodeQuality,
		fps:           encodeFPS,
		maxDim:        encodeMaxDim,
		loop:          encodeLoop,
		globalPalette: encodeGlobalPalette,
		dedupe:        encodeDedupe,
	}.resolve(cmd.Flags().Changed)
	if err != nil {
		return err
	}
	if encodeDispose < gifenc.DisposeAuto || encodeDispose > 7 {
		return fmt.Errorf("dispose %d out of range -1..7", encodeDispose)
	}

	cfg := pipeline.Config{
		Input:         absInput,
		OutputDir:     absOutput,
		Name:          encodeName,
		Profile:       prof,
		Workers:       encodeWorkers,
		Verbose:       verbose,
		Dispose:       encodeDispose,
		Poster:        encodePoster,
		PosterQuality: encodePosterQuality,
	}
	if encodeTransparent != "" {
		c, err := parseHexColor(encodeTransparent)
		if err != nil {
			return err
		}
		cfg.Transparent = &c
	}
	if encodeRange != "" {
		r, err := timerange.ParseRange(encodeRange)
		if err != nil {
			return fmt.Errorf("parse range: %w", err)
		}
		cfg.Range = &r
	}

	logVerbose("input:   %s", absInput)
	logVerbose("output:  %s", absOutput)
	logVerbose("profile: %s (fps=%d, max-dim=%d, quality=%d, loop=%d)",
		prof.Name, prof.FPS, prof.MaxDim, prof.Quality, prof.Loop)

	// Create output dir.
	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	p := pipeline.New(cfg)
	res, err := p.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	// Update manifest.
	manifestPath := filepath.Join(absOutput, manifest.FileName)
	m, err := manifest.LoadOrNew(manifestPath, prof.Name)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	m.BuildInfo = &manifest.BuildInfo{Workers: encodeWorkers, Quality: prof.Quality, FPS: prof.FPS}
	m.Animations[res.Name] = res.Animation
	if err := manifest.WriteJSON(m, manifestPath); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	printEncodeReport(res, time.Since(start))
	return nil
}

// parseHexColor parses "RRGGBB" or "#RRGGBB".
func parseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("color %q: want RRGGBB", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: want RRGGBB", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func printEncodeReport(res *pipeline.Result, elapsed time.Duration) {
	a := res.Animation
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════════════╗")
	fmt.Println("║              gifcap encode complete              ║")
	fmt.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	fmt.Printf("  %s      %s\n", label("Output:"), a.Path)
	fmt.Printf("  %s        %dx%d (source %dx%d, %s)\n", label("Size:"),
		a.Width, a.Height, a.Source.Width, a.Source.Height, a.Source.Kind)
	printer.Printf("  %s      %d of %d input frames\n", label("Frames:"), a.Frames, a.Source.Frames)
	fmt.Printf("  %s    %s\n", label("Duration:"), (time.Duration(a.DurationMS) * time.Millisecond).String())
	if a.Range != "" {
		fmt.Printf("  %s       %s\n", label("Range:"), a.Range)
	}
	fmt.Printf("  %s        %s\n", label("Loop:"), loopLabel(a.Loop))
	fmt.Printf("  %s     %s\n", label("Palette:"), paletteLabel(a.GlobalPalette))
	fmt.Printf("  %s   %s\n", label("File size:"), formatBytes(a.Size))
	if a.Poster != nil {
		fmt.Printf("  %s      %s (%s)\n", label("Poster:"), a.Poster.Path, formatBytes(a.Poster.Size))
	}
	fmt.Printf("  %s        %s\n", label("Time:"), elapsed.Round(time.Millisecond))
	if res.Interrupted {
		fmt.Printf("  %s stopped early; the file holds the frames encoded so far\n", warnMark("⚠"))
	}
	fmt.Println()
	fmt.Printf("  Manifest:    %s\n", manifest.FileName)
	fmt.Println()
}

func loopLabel(loop int) string {
	switch {
	case loop < 0:
		return "plays once"
	case loop == 0:
		return "forever"
	default:
		return fmt.Sprintf("%d repeats", loop)
	}
}

func paletteLabel(global bool) string {
	if global {
		return "global (first frame)"
	}
	return "per frame"
}
