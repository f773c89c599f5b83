// Package sink accumulates the bytes of an encoded stream.
package sink

import "errors"

// ErrFrozen is returned by writes after Freeze.
var ErrFrozen = errors.New("sink: write after freeze")

// Sink is a growable byte buffer with the little-endian helpers a GIF
// stream needs. The zero value is ready to use.
type Sink struct {
	buf    []byte
	frozen bool
	err    error // first rejected write
}

// New returns a sink with room for sizeHint bytes.
func New(sizeHint int) *Sink {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Sink{buf: make([]byte, 0, sizeHint)}
}

// WriteByte appends one byte.
func (s *Sink) WriteByte(b byte) error {
	if s.frozen {
		s.reject()
		return ErrFrozen
	}
	s.buf = append(s.buf, b)
	return nil
}

// Write appends p. It implements io.Writer.
func (s *Sink) Write(p []byte) (int, error) {
	if s.frozen {
		s.reject()
		return 0, ErrFrozen
	}
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// WriteShort appends v as two bytes, low byte first.
func (s *Sink) WriteShort(v uint16) error {
	if s.frozen {
		s.reject()
		return ErrFrozen
	}
	s.buf = append(s.buf, byte(v), byte(v>>8))
	return nil
}

// WriteString appends the bytes of str.
func (s *Sink) WriteString(str string) (int, error) {
	if s.frozen {
		s.reject()
		return 0, ErrFrozen
	}
	s.buf = append(s.buf, str...)
	return len(str), nil
}

// Len returns the number of bytes written so far.
func (s *Sink) Len() int { return len(s.buf) }

// Bytes returns the accumulated bytes. The slice aliases the sink's
// storage and must not be modified.
func (s *Sink) Bytes() []byte { return s.buf }

// Freeze rejects all further writes.
func (s *Sink) Freeze() { s.frozen = true }

// Err returns ErrFrozen once any write has been rejected.
func (s *Sink) Err() error { return s.err }

func (s *Sink) reject() {
	if s.err == nil {
		s.err = ErrFrozen
	}
}

// Frozen reports whether Freeze has been called.
func (s *Sink) Frozen() bool { return s.frozen }
