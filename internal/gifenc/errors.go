package gifenc

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDimensions is returned by New for sizes outside 1..65535.
	ErrInvalidDimensions = errors.New("gifenc: width and height must be in 1..65535")
	// ErrInvalidDispose is returned for disposal codes outside 0..7.
	ErrInvalidDispose = errors.New("gifenc: disposal method must be in 0..7")
	// ErrInvalidLoop is returned for loop counts outside -1..65535.
	ErrInvalidLoop = errors.New("gifenc: loop count must be in -1..65535")

	ErrNotStarted   = errors.New("gifenc: encoder not started")
	ErrStarted      = errors.New("gifenc: encoder already started")
	ErrFinished     = errors.New("gifenc: encoder already finished")
	ErrConfigLocked = errors.New("gifenc: settings are fixed once a frame has been written")

	// ErrFrameSize matches every *FrameSizeError.
	ErrFrameSize = errors.New("gifenc: frame size mismatch")
)

// FrameSizeError reports a pixel buffer whose length does not match the
// encoder's dimensions.
type FrameSizeError struct {
	Got      int // buffer length in bytes
	Want     int // width * height * channels
	Channels int
}

func (e *FrameSizeError) Error() string {
	return fmt.Sprintf("gifenc: frame size mismatch: got %d bytes, want %d (%d channels)",
		e.Got, e.Want, e.Channels)
}

// Is makes errors.Is(err, ErrFrameSize) hold.
func (e *FrameSizeError) Is(target error) bool { return target == ErrFrameSize }
