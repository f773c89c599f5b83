package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "gifcap",
	Short: "Turn captured frame sequences into animated GIFs",
	Long: `gifcap encodes a directory of frames or a frame spool into a compact
animated GIF89a with per-frame NeuQuant palettes and LZW-compressed data.

Outputs are content-addressed (<name>.<hash>.gif) and described in a
gifcap.manifest.json next to them.`,
	Version:      version,
	SilenceUsage: true,
}

// Execute runs the root command. Interrupts cancel the command context so
// a running encode can finish the frames it already has.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"gifcap %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// logVerbose prints a message only when --verbose is set.
func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[gifcap] "+format+"\n", args...)
	}
}
