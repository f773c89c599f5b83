package pipeline

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/AnyUserName/gifcap/internal/encoder"
	"github.com/AnyUserName/gifcap/internal/gifenc"
	"github.com/AnyUserName/gifcap/internal/hasher"
	"github.com/AnyUserName/gifcap/internal/manifest"
	"github.com/AnyUserName/gifcap/internal/profile"
	"github.com/AnyUserName/gifcap/internal/timerange"
)

// Config holds all parameters for an encode run.
type Config struct {
	Input     string // frame directory or .spool file
	OutputDir string
	Name      string // output base name; defaults to gifcap-<timestamp>
	Profile   profile.Profile
	Workers   int
	Verbose   bool

	Range       *timerange.Range // nil encodes everything
	Transparent *color.RGBA
	Dispose     int // gifenc.DisposeAuto or 0..7

	Poster        string // still format for the poster frame; empty for none
	PosterQuality int
}

// Result describes one finished encode.
type Result struct {
	Name        string
	Animation   manifest.Animation
	Interrupted bool // the context ended before the input did
}

// Pipeline turns a frame sequence into a GIF on disk.
type Pipeline struct {
	cfg      Config
	registry *encoder.Registry
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName(time.Now())
	}
	return &Pipeline{
		cfg:      cfg,
		registry: encoder.NewRegistry(),
	}
}

// DefaultName returns the output base name used when none is given.
func DefaultName(t time.Time) string {
	return "gifcap-" + t.Format("20060102-150405")
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.cfg.Verbose {
		fmt.Fprintf(os.Stderr, "[gifcap] "+format+"\n", args...)
	}
}

// Run encodes the input and writes the GIF (and poster) to OutputDir.
// Frames are decoded in parallel but encoded in order. When ctx ends
// early the frames encoded so far are still written as a complete file
// and the result is marked Interrupted.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if p.cfg.Poster != "" {
		if _, err := p.registry.Resolve(p.cfg.Poster); err != nil {
			return nil, err
		}
		p.logf("%s", p.registry.String())
	}

	src, err := openSource(p.cfg.Input, p.cfg.Profile, p.cfg.Range, p.cfg.Workers)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	width, height := src.Bounds()
	srcW, srcH := src.SourceBounds()
	p.logf("input %s (%s): %dx%d -> %dx%d", p.cfg.Input, src.Kind(), srcW, srcH, width, height)

	opts := gifenc.DefaultOptions()
	opts.Delay = p.cfg.Profile.FrameDelay()
	opts.Loop = p.cfg.Profile.Loop
	opts.Quality = p.cfg.Profile.Quality
	opts.GlobalPalette = p.cfg.Profile.GlobalPalette
	opts.Dispose = p.cfg.Dispose
	opts.Transparent = p.cfg.Transparent
	if p.cfg.Verbose {
		opts.Logf = p.logf
	}
	enc, err := gifenc.New(width, height, opts)
	if err != nil {
		return nil, fmt.Errorf("create encoder: %w", err)
	}
	if err := enc.Start(); err != nil {
		return nil, err
	}

	var (
		pending      *image.NRGBA
		pendingDelay time.Duration
		pendingHash  uint64
		poster       *image.NRGBA
		duration     time.Duration
		interrupted  bool
	)
	emit := func() error {
		if poster == nil {
			poster = pending
		}
		duration += pendingDelay
		return enc.AddFrame(gifenc.Frame{
			Pix:         pending.Pix,
			Channels:    4,
			Delay:       pendingDelay,
			Dispose:     p.cfg.Dispose,
			Transparent: p.cfg.Transparent,
		})
	}

	for {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		img, delay, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() != nil {
				interrupted = true
				break
			}
			return nil, err
		}

		var h uint64
		if p.cfg.Profile.Dedupe {
			h = hasher.FrameHash(img.Pix)
			if pending != nil && h == pendingHash {
				pendingDelay += delay
				continue
			}
		}
		if pending != nil {
			if err := emit(); err != nil {
				return nil, fmt.Errorf("encode frame %d: %w", enc.FrameCount()+1, err)
			}
		}
		pending, pendingDelay, pendingHash = img, delay, h
	}
	if pending != nil {
		if err := emit(); err != nil {
			return nil, fmt.Errorf("encode frame %d: %w", enc.FrameCount()+1, err)
		}
	}
	if enc.FrameCount() == 0 {
		if interrupted {
			return nil, ctx.Err()
		}
		if p.cfg.Range != nil {
			return nil, fmt.Errorf("%w: range %s selects nothing", ErrNoFrames, p.cfg.Range)
		}
		return nil, ErrNoFrames
	}
	if err := enc.Finish(); err != nil {
		return nil, err
	}
	if interrupted {
		p.logf("interrupted after %d frames", enc.FrameCount())
	}

	if err := os.MkdirAll(p.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	data := enc.Bytes()
	contentHash := hasher.ContentHash(data, 16)
	fileName := fmt.Sprintf("%s.%s.gif", p.cfg.Name, contentHash[:8])
	if err := os.WriteFile(filepath.Join(p.cfg.OutputDir, fileName), data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", fileName, err)
	}
	p.logf("wrote %s (%d frames, %d bytes)", fileName, enc.FrameCount(), len(data))

	anim := manifest.Animation{
		Source: manifest.SourceInfo{
			Path:   filepath.ToSlash(p.cfg.Input),
			Kind:   src.Kind(),
			Frames: src.Seen(),
			Width:  srcW,
			Height: srcH,
		},
		Width:         width,
		Height:        height,
		Frames:        enc.FrameCount(),
		DurationMS:    duration.Milliseconds(),
		Loop:          p.cfg.Profile.Loop,
		GlobalPalette: p.cfg.Profile.GlobalPalette,
		Size:          int64(len(data)),
		Hash:          contentHash,
		Path:          fileName,
	}
	if p.cfg.Range != nil {
		anim.Range = p.cfg.Range.String()
	}

	if p.cfg.Poster != "" {
		still, err := p.writePoster(poster)
		if err != nil {
			return nil, err
		}
		anim.Poster = still
	}

	return &Result{Name: p.cfg.Name, Animation: anim, Interrupted: interrupted}, nil
}

// writePoster encodes the first frame as a still next to the GIF.
func (p *Pipeline) writePoster(img *image.NRGBA) (*manifest.Still, error) {
	enc, err := p.registry.Resolve(p.cfg.Poster)
	if err != nil {
		return nil, err
	}
	data, err := enc.Encode(img, p.cfg.PosterQuality)
	if err != nil {
		return nil, fmt.Errorf("encode poster: %w", err)
	}
	contentHash := hasher.ContentHash(data, 16)
	fileName := fmt.Sprintf("%s.poster.%s.%s", p.cfg.Name, contentHash[:8], enc.Extension())
	if err := os.WriteFile(filepath.Join(p.cfg.OutputDir, fileName), data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", fileName, err)
	}
	b := img.Bounds()
	return &manifest.Still{
		Format: enc.Format(),
		Width:  b.Dx(),
		Height: b.Dy(),
		Size:   int64(len(data)),
		Hash:   contentHash,
		Path:   fileName,
	}, nil
}
