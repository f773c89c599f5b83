package sink

import "io"

// MaxSubBlock is the largest payload a single sub-block can carry.
const MaxSubBlock = 255

// SubBlockWriter splits a byte stream into length-prefixed sub-blocks.
// Close flushes the pending block and writes the zero-length terminator.
type SubBlockWriter struct {
	w   io.Writer
	buf [1 + MaxSubBlock]byte
	n   int
	err error
}

// NewSubBlockWriter returns a writer emitting sub-blocks to w.
func NewSubBlockWriter(w io.Writer) *SubBlockWriter {
	return &SubBlockWriter{w: w}
}

// WriteByte buffers one byte, emitting a full block when needed.
func (b *SubBlockWriter) WriteByte(c byte) error {
	if b.err != nil {
		return b.err
	}
	b.n++
	b.buf[b.n] = c
	if b.n == MaxSubBlock {
		b.flush()
	}
	return b.err
}

// Write buffers p.
func (b *SubBlockWriter) Write(p []byte) (int, error) {
	for i, c := range p {
		if err := b.WriteByte(c); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

func (b *SubBlockWriter) flush() {
	if b.n == 0 || b.err != nil {
		return
	}
	b.buf[0] = byte(b.n)
	_, b.err = b.w.Write(b.buf[:b.n+1])
	b.n = 0
}

// Close writes any pending bytes and the block terminator.
func (b *SubBlockWriter) Close() error {
	b.flush()
	if b.err != nil {
		return b.err
	}
	_, b.err = b.w.Write([]byte{0})
	return b.err
}
