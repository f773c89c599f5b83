// Package timerange parses the clock-style times and ranges used to pick
// a slice of a frame sequence.
package timerange

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrSyntax is returned for input that is not a time or range.
	ErrSyntax = errors.New("timerange: invalid syntax")
	// ErrEmptyRange is returned when a range does not end after it starts.
	ErrEmptyRange = errors.New("timerange: end must be after start")
)

// Range is a half-open interval [Start, End).
type Range struct {
	Start time.Duration
	End   time.Duration
}

// rangeSep splits "a-b", "a ~ b", "a到b" and "a至b".
var rangeSep = regexp.MustCompile(`\s*[-~到至]\s*`)

// ParseTime parses "65", "65.5", "1:05", "1:05.5" or "1:30:05".
func ParseTime(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty time", ErrSyntax)
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
	}

	var secs float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, fmt.Errorf("%w: %q", ErrSyntax, s)
		}
		secs = secs*60 + v
	}
	return time.Duration(math.Round(secs * float64(time.Second))), nil
}

// ParseRange parses two times joined by -, ~, 到 or 至.
func ParseRange(s string) (Range, error) {
	parts := rangeSep.Split(strings.TrimSpace(s), -1)
	if len(parts) != 2 {
		return Range{}, fmt.Errorf("%w: %q is not a range", ErrSyntax, s)
	}
	start, err := ParseTime(parts[0])
	if err != nil {
		return Range{}, err
	}
	end, err := ParseTime(parts[1])
	if err != nil {
		return Range{}, err
	}
	if start >= end {
		return Range{}, fmt.Errorf("%w: %s-%s", ErrEmptyRange, Format(start), Format(end))
	}
	return Range{Start: start, End: end}, nil
}

// Contains reports whether t falls within [Start, End).
func (r Range) Contains(t time.Duration) bool {
	return t >= r.Start && t < r.End
}

// Duration returns End - Start.
func (r Range) Duration() time.Duration { return r.End - r.Start }

// String renders the range so ParseRange reads it back, keeping
// fractions of a second.
func (r Range) String() string {
	return formatExact(r.Start) + "-" + formatExact(r.End)
}

func formatExact(d time.Duration) string {
	s := Format(d)
	if ms := d.Milliseconds() % 1000; d > 0 && ms != 0 {
		s += strings.TrimRight(fmt.Sprintf(".%03d", ms), "0")
	}
	return s
}

// Format renders d as "m:ss", or "h:mm:ss" from one hour up. Fractions of
// a second are dropped.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	h, m, s := total/3600, total%3600/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
