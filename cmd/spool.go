package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AnyUserName/gifcap/internal/pipeline"
	"github.com/AnyUserName/gifcap/internal/timerange"
	"github.com/spf13/cobra"
)

var (
	spoolOut     string
	spoolProfile string
	spoolWorkers int
	spoolFPS     int
	spoolMaxDim  int
	spoolRange   string
)

var spoolCmd = &cobra.Command{
	Use:   "spool <frames_dir>",
	Short: "Decode and fit frames once into a compressed frame spool",
	Long: `Decodes every frame in a directory, fits it to the profile's maximum
dimension and stores the raw pixels in a zstd-compressed spool. Encoding
the spool later skips decoding and resizing, which makes trying several
qualities or palette modes cheap.`,
	Args: cobra.ExactArgs(1),
	RunE: runSpool,
}

func init() {
	f := spoolCmd.Flags()
	f.StringVarP(&spoolOut, "out", "o", "frames.spool", "spool file to write")
	f.StringVarP(&spoolProfile, "profile", "p", "default", "capture profile (fps, max dimension)")
	f.IntVarP(&spoolWorkers, "workers", "w", 0, "parallel frame decoders (0 = NumCPU)")
	f.IntVar(&spoolFPS, "fps", 0, "source frame rate (0 = profile default)")
	f.IntVar(&spoolMaxDim, "max-dim", 0, "longest side in pixels (0 = profile default)")
	f.StringVar(&spoolRange, "range", "", "time slice to keep, e.g. 0:01-0:03")
	rootCmd.AddCommand(spoolCmd)
}

func runSpool(cmd *cobra.Command, args []string) error {
	start := time.Now()
	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	if !pipeline.IsSpool(spoolOut) {
		return fmt.Errorf("spool output %q must end in .spool", spoolOut)
	}

	prof, err := profileFlags{
		name:   spoolProfile,
		fps:    spoolFPS,
		maxDim: spoolMaxDim,
	}.resolve(cmd.Flags().Changed)
	if err != nil {
		return err
	}
	cfg := pipeline.Config{
		Input:   absInput,
		Profile: prof,
		Workers: spoolWorkers,
		Verbose: verbose,
	}
	if spoolRange != "" {
		r, err := timerange.ParseRange(spoolRange)
		if err != nil {
			return fmt.Errorf("parse range: %w", err)
		}
		cfg.Range = &r
	}

	if dir := filepath.Dir(spoolOut); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	tmp := spoolOut + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create spool: %w", err)
	}
	res, err := pipeline.WriteSpool(cmd.Context(), cfg, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("spool: %w", err)
	}
	if err := os.Rename(tmp, spoolOut); err != nil {
		return fmt.Errorf("finalize spool: %w", err)
	}

	info, err := os.Stat(spoolOut)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Printf("  %s %s\n", okMark("✓"), spoolOut)
	printer.Printf("    %d frames at %dx%d, %s\n", res.Frames, res.Width, res.Height, formatBytes(info.Size()))
	fmt.Printf("    %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Println()
	return nil
}
