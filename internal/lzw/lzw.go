// Package lzw implements the variable-width LZW coder used by GIF image
// data.
//
// Codes start at minCodeSize+1 bits and widen up to 12 bits. When all
// 4096 codes are assigned a Clear code resets the dictionary. Codes are
// packed LSB-first and the resulting bytes are framed in sub-blocks of at
// most 255 bytes, closed by a zero-length block.
package lzw

import (
	"errors"
	"fmt"
	"io"

	"github.com/AnyUserName/gifcap/internal/sink"
)

const (
	maxBits     = 12
	maxMaxCode  = 1 << maxBits // should never generate this code
	hashSize    = 5003         // 80% occupancy
	emptySlot   = -1
	minLitWidth = 2
	maxLitWidth = 8
)

// ErrIndexRange is returned when an index does not fit the code size.
var ErrIndexRange = errors.New("lzw: index out of range for code size")

// Compress writes the LZW encoding of indices to w: the minimum code size
// byte, the packed code sub-blocks and the block terminator. minCodeSize
// is clamped to [2, 8] and every index must be below 1<<minCodeSize.
func Compress(w io.Writer, indices []byte, minCodeSize int) error {
	if minCodeSize < minLitWidth {
		minCodeSize = minLitWidth
	}
	if minCodeSize > maxLitWidth {
		minCodeSize = maxLitWidth
	}
	limit := 1 << minCodeSize
	for i, v := range indices {
		if int(v) >= limit {
			return fmt.Errorf("%w: index %d at %d, code size %d", ErrIndexRange, v, i, minCodeSize)
		}
	}
	if _, err := w.Write([]byte{byte(minCodeSize)}); err != nil {
		return fmt.Errorf("write code size: %w", err)
	}

	bw := sink.NewSubBlockWriter(w)
	e := newEncoder(bw, minCodeSize)
	e.encode(indices)
	if e.err != nil {
		return fmt.Errorf("write codes: %w", e.err)
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("write terminator: %w", err)
	}
	return nil
}

// encoder is the per-call coding state. Nothing survives across calls.
type encoder struct {
	out io.ByteWriter
	err error

	initBits  int
	nBits     int
	maxCode   int
	clearCode int
	eofCode   int
	freeEnt   int
	resets    int

	accum uint32
	nAcc  uint

	htab    [hashSize]int32
	codetab [hashSize]int32
}

func newEncoder(out io.ByteWriter, minCodeSize int) *encoder {
	e := &encoder{out: out, initBits: minCodeSize + 1}
	e.clearCode = 1 << minCodeSize
	e.eofCode = e.clearCode + 1
	e.resetWidth()
	e.clearHash()
	e.freeEnt = e.clearCode + 2
	return e
}

func (e *encoder) resetWidth() {
	e.nBits = e.initBits
	e.maxCode = 1<<e.nBits - 1
}

func (e *encoder) clearHash() {
	for i := range e.htab {
		e.htab[i] = emptySlot
	}
}

// hashShift is the shift applied to the symbol before it is xored with the
// prefix code to form the primary slot.
func hashShift() int {
	shift := 0
	for f := hashSize; f < 65536; f *= 2 {
		shift++
	}
	return 8 - shift
}

func (e *encoder) encode(indices []byte) {
	e.output(e.clearCode)
	if len(indices) == 0 {
		e.output(e.eofCode)
		e.flush()
		return
	}

	shift := hashShift()
	ent := int(indices[0])

next:
	for _, sym := range indices[1:] {
		c := int(sym)
		fcode := int32(c<<maxBits + ent)
		i := c<<shift ^ ent

		if e.htab[i] == fcode {
			ent = int(e.codetab[i])
			continue
		}
		if e.htab[i] >= 0 {
			// Secondary probe, after G. Knott.
			disp := hashSize - i
			if i == 0 {
				disp = 1
			}
			for {
				if i -= disp; i < 0 {
					i += hashSize
				}
				if e.htab[i] == fcode {
					ent = int(e.codetab[i])
					continue next
				}
				if e.htab[i] < 0 {
					break
				}
			}
		}

		e.output(ent)
		ent = c
		if e.freeEnt < maxMaxCode {
			e.codetab[i] = int32(e.freeEnt)
			e.htab[i] = fcode
			e.freeEnt++
			e.grow()
		} else {
			e.clearBlock()
		}
	}

	e.output(ent)
	// A decoder counts the final code as if it defined an entry, so the
	// width may step up once more before EOI.
	if e.freeEnt > e.maxCode && e.nBits < maxBits {
		e.nBits++
		e.maxCode = 1<<e.nBits - 1
	}
	e.output(e.eofCode)
	e.flush()
}

// grow widens the code once freeEnt no longer fits the current width.
func (e *encoder) grow() {
	if e.freeEnt <= e.maxCode+1 {
		return
	}
	if e.nBits < maxBits {
		e.nBits++
		e.maxCode = 1<<e.nBits - 1
	}
}

// clearBlock resets the dictionary and tells the decoder to do the same.
func (e *encoder) clearBlock() {
	e.clearHash()
	e.freeEnt = e.clearCode + 2
	e.resets++
	e.output(e.clearCode)
	e.resetWidth()
}

// output appends code at the current width, LSB first.
func (e *encoder) output(code int) {
	e.accum |= uint32(code) << e.nAcc
	e.nAcc += uint(e.nBits)
	for e.nAcc >= 8 {
		e.writeByte(byte(e.accum))
		e.accum >>= 8
		e.nAcc -= 8
	}
}

func (e *encoder) flush() {
	if e.nAcc > 0 {
		e.writeByte(byte(e.accum))
		e.accum, e.nAcc = 0, 0
	}
}

func (e *encoder) writeByte(b byte) {
	if e.err == nil {
		e.err = e.out.WriteByte(b)
	}
}
