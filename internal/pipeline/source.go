package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AnyUserName/gifcap/internal/profile"
	"github.com/AnyUserName/gifcap/internal/spool"
	"github.com/AnyUserName/gifcap/internal/timerange"
)

// batchPerWorker is how many frames each worker decodes ahead of the
// encoder.
const batchPerWorker = 4

// ErrNoFrames is returned when the input yields nothing to encode.
var ErrNoFrames = errors.New("no frames to encode")

// frameSource yields fitted frames in playback order.
type frameSource interface {
	// Next returns the next frame and its display time, or io.EOF.
	Next(ctx context.Context) (*image.NRGBA, time.Duration, error)
	// Kind is "dir" or "spool".
	Kind() string
	// Bounds returns the fitted canvas size.
	Bounds() (width, height int)
	// SourceBounds returns the size of the first input frame.
	SourceBounds() (width, height int)
	// Seen returns how many input frames were considered so far,
	// including those skipped by the range.
	Seen() int
	Close() error
}

// IsSpool reports whether path names a spool file rather than a frame
// directory.
func IsSpool(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".spool")
}

// openSource opens input as a spool file or a frame directory.
func openSource(input string, prof profile.Profile, rng *timerange.Range, workers int) (frameSource, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return openDir(input, prof, rng, workers)
	}
	if !IsSpool(input) {
		return nil, fmt.Errorf("%s is neither a frame directory nor a .spool file", input)
	}
	return openSpool(input, prof, rng)
}

// dirSource decodes frame files batch by batch.
type dirSource struct {
	sources []Source
	total   int
	next    int

	batch []*image.NRGBA
	pos   int

	width, height int
	srcW, srcH    int
	workers       int
	delay         time.Duration
}

func openDir(dir string, prof profile.Profile, rng *timerange.Range, workers int) (*dirSource, error) {
	sources, err := ScanFrames(dir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no images found in %s", ErrNoFrames, dir)
	}

	srcW, srcH, err := probeSize(sources[0].AbsPath)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", sources[0].RelPath, err)
	}
	w, h := prof.FitSize(srcW, srcH)
	d := &dirSource{
		total:   len(sources),
		width:   w,
		height:  h,
		srcW:    srcW,
		srcH:    srcH,
		workers: workers,
		delay:   prof.FrameDelay(),
	}
	d.sources = selectFrames(sources, d.delay, rng)
	return d, nil
}

// selectFrames keeps the frames whose start time lies in rng. Frame i
// starts at i*delay.
func selectFrames(sources []Source, delay time.Duration, rng *timerange.Range) []Source {
	if rng == nil {
		return sources
	}
	var out []Source
	for i, s := range sources {
		t := time.Duration(i) * delay
		if t >= rng.End {
			break
		}
		if rng.Contains(t) {
			out = append(out, s)
		}
	}
	return out
}

func (d *dirSource) Next(ctx context.Context) (*image.NRGBA, time.Duration, error) {
	if d.pos == len(d.batch) {
		if d.next == len(d.sources) {
			return nil, 0, io.EOF
		}
		end := min(d.next+d.workers*batchPerWorker, len(d.sources))
		batch, err := loadBatch(ctx, d.sources[d.next:end], d.width, d.height, d.workers)
		if err != nil {
			return nil, 0, err
		}
		d.batch, d.pos, d.next = batch, 0, end
	}
	img := d.batch[d.pos]
	d.batch[d.pos] = nil
	d.pos++
	return img, d.delay, nil
}

func (d *dirSource) Kind() string             { return "dir" }
func (d *dirSource) Bounds() (int, int)       { return d.width, d.height }
func (d *dirSource) SourceBounds() (int, int) { return d.srcW, d.srcH }
func (d *dirSource) Seen() int                { return d.total }
func (d *dirSource) Close() error             { return nil }

// spoolSource replays a spool file, fitting frames that do not match the
// canvas.
type spoolSource struct {
	f   *os.File
	r   *spool.Reader
	rng *timerange.Range

	first   *spool.Frame // read ahead to size the canvas
	elapsed time.Duration
	seen    int
	done    bool

	width, height int
	srcW, srcH    int
	delay         time.Duration
}

func openSpool(path string, prof profile.Profile, rng *timerange.Range) (*spoolSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := spool.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open spool %s: %w", path, err)
	}
	first, err := r.Next()
	if err != nil {
		r.Close()
		f.Close()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: spool %s is empty", ErrNoFrames, path)
		}
		return nil, fmt.Errorf("read spool %s: %w", path, err)
	}

	w, h := prof.FitSize(first.Width, first.Height)
	return &spoolSource{
		f:      f,
		r:      r,
		rng:    rng,
		first:  &first,
		width:  w,
		height: h,
		srcW:   first.Width,
		srcH:   first.Height,
		delay:  prof.FrameDelay(),
	}, nil
}

func (s *spoolSource) read() (spool.Frame, error) {
	if s.first != nil {
		f := *s.first
		s.first = nil
		return f, nil
	}
	return s.r.Next()
}

func (s *spoolSource) Next(ctx context.Context) (*image.NRGBA, time.Duration, error) {
	for !s.done {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		fr, err := s.read()
		if err != nil {
			return nil, 0, err
		}
		s.seen++

		delay := fr.Delay
		if delay <= 0 {
			delay = s.delay
		}
		t := s.elapsed
		s.elapsed += delay
		if s.rng != nil {
			if t >= s.rng.End {
				s.done = true
				break
			}
			if !s.rng.Contains(t) {
				continue
			}
		}

		img := &image.NRGBA{
			Pix:    fr.Pix,
			Stride: fr.Width * 4,
			Rect:   image.Rect(0, 0, fr.Width, fr.Height),
		}
		return fitFrame(img, s.width, s.height), delay, nil
	}
	return nil, 0, io.EOF
}

func (s *spoolSource) Kind() string             { return "spool" }
func (s *spoolSource) Bounds() (int, int)       { return s.width, s.height }
func (s *spoolSource) SourceBounds() (int, int) { return s.srcW, s.srcH }
func (s *spoolSource) Seen() int                { return s.seen }

func (s *spoolSource) Close() error {
	s.r.Close()
	return s.f.Close()
}
