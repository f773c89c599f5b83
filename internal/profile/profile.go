package profile

import "time"

// Profile defines capture and encoding parameters for an animation.
type Profile struct {
	Name          string
	FPS           int  // frames per second of the source sequence
	MaxDim        int  // longest side after fitting; 0 keeps the source size
	Quality       int  // 1-30, lower is better
	Loop          int  // -1 plays once, 0 loops forever, n repeats n times
	GlobalPalette bool // learn one palette from the first frame
	Dedupe        bool // merge consecutive identical frames
}

// Built-in profiles.
var profiles = map[string]Profile{
	"default": {
		Name:    "default",
		FPS:     10,
		MaxDim:  480,
		Quality: 15,
		Loop:    0,
	},
	"hq": {
		Name:    "hq",
		FPS:     15,
		MaxDim:  720,
		Quality: 1,
		Loop:    0,
	},
	"small": {
		Name:          "small",
		FPS:           8,
		MaxDim:        320,
		Quality:       20,
		Loop:          0,
		GlobalPalette: true,
		Dedupe:        true,
	},
}

// Get returns a profile by name. Falls back to default if unknown.
func Get(name string) Profile {
	if p, ok := profiles[name]; ok {
		return p
	}
	p := profiles["default"]
	p.Name = name // preserve requested name
	return p
}

// Known reports whether name is a built-in profile.
func Known(name string) bool {
	_, ok := profiles[name]
	return ok
}

// FrameDelay returns the display time of one frame at the profile's rate.
func (p Profile) FrameDelay() time.Duration {
	if p.FPS <= 0 {
		return 100 * time.Millisecond
	}
	return time.Second / time.Duration(p.FPS)
}

// FitSize scales width x height so the longest side is at most MaxDim,
// keeping the aspect ratio, and rounds both sides down to even numbers.
// Sizes are never scaled up and never drop below 2.
func (p Profile) FitSize(width, height int) (int, int) {
	w, h := width, height
	if p.MaxDim > 0 && (w > p.MaxDim || h > p.MaxDim) {
		if w >= h {
			h = h * p.MaxDim / w
			w = p.MaxDim
		} else {
			w = w * p.MaxDim / h
			h = p.MaxDim
		}
	}
	return even(w), even(h)
}

func even(v int) int {
	v &^= 1
	if v < 2 {
		return 2
	}
	return v
}
