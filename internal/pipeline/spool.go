package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/AnyUserName/gifcap/internal/spool"
)

// SpoolResult summarizes a WriteSpool run.
type SpoolResult struct {
	Frames        int
	Width, Height int
}

// WriteSpool decodes and fits the frames of cfg.Input, which must be a
// frame directory, and stores them in a spool on w. The profile's frame
// rate sets each frame's delay and cfg.Range selects a slice.
func WriteSpool(ctx context.Context, cfg Config, w io.Writer) (*SpoolResult, error) {
	p := New(cfg)
	src, err := openDir(p.cfg.Input, p.cfg.Profile, p.cfg.Range, p.cfg.Workers)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	sw, err := spool.NewWriter(w)
	if err != nil {
		return nil, err
	}
	res := &SpoolResult{}
	res.Width, res.Height = src.Bounds()
	for {
		img, delay, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			sw.Close()
			return nil, err
		}
		frame := spool.Frame{Width: res.Width, Height: res.Height, Delay: delay, Pix: img.Pix}
		if err := sw.WriteFrame(frame); err != nil {
			sw.Close()
			return nil, fmt.Errorf("spool frame %d: %w", res.Frames+1, err)
		}
		res.Frames++
		p.logf("spooled frame %d", res.Frames)
	}
	if err := sw.Close(); err != nil {
		return nil, fmt.Errorf("close spool: %w", err)
	}
	if res.Frames == 0 {
		return nil, ErrNoFrames
	}
	return res, nil
}
