package sink

import (
	"bytes"
	"errors"
	"testing"
)

func TestSink_LittleEndian(t *testing.T) {
	s := New(0)
	s.WriteString("GIF89a")
	s.WriteShort(0x1234)
	s.WriteByte(0x3b)

	want := []byte{'G', 'I', 'F', '8', '9', 'a', 0x34, 0x12, 0x3b}
	if !bytes.Equal(s.Bytes(), want) {
		t.Fatalf("bytes: got % x, want % x", s.Bytes(), want)
	}
	if s.Len() != len(want) {
		t.Errorf("len: got %d, want %d", s.Len(), len(want))
	}
}

func TestSink_Freeze(t *testing.T) {
	s := New(4)
	s.WriteByte(1)
	s.Freeze()

	if err := s.WriteByte(2); !errors.Is(err, ErrFrozen) {
		t.Errorf("WriteByte after freeze: got %v", err)
	}
	if _, err := s.Write([]byte{3, 4}); !errors.Is(err, ErrFrozen) {
		t.Errorf("Write after freeze: got %v", err)
	}
	if err := s.WriteShort(5); !errors.Is(err, ErrFrozen) {
		t.Errorf("WriteShort after freeze: got %v", err)
	}
	if !bytes.Equal(s.Bytes(), []byte{1}) {
		t.Errorf("content changed after freeze: % x", s.Bytes())
	}
	if !s.Frozen() {
		t.Error("Frozen() = false")
	}
	if !errors.Is(s.Err(), ErrFrozen) {
		t.Errorf("Err after rejected writes: got %v", s.Err())
	}
}

func TestSink_ErrNilWhileOpen(t *testing.T) {
	s := New(0)
	s.WriteString("GIF89a")
	s.WriteShort(7)
	if err := s.Err(); err != nil {
		t.Errorf("Err: got %v, want nil", err)
	}
}

func TestSubBlockWriter_Split(t *testing.T) {
	var out bytes.Buffer
	w := NewSubBlockWriter(&out)

	payload := make([]byte, 600)
	for i := range payload {
		payload[i] = byte(i)
	}
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	got := out.Bytes()
	// 255 + 255 + 90, each with a length byte, then the terminator.
	if len(got) != 600+3+1 {
		t.Fatalf("encoded length: got %d, want %d", len(got), 604)
	}
	if got[0] != 255 || got[256] != 255 || got[512] != 90 {
		t.Errorf("block lengths: %d %d %d", got[0], got[256], got[512])
	}
	if got[len(got)-1] != 0 {
		t.Errorf("missing terminator")
	}

	var joined []byte
	for i := 0; got[i] != 0; i += int(got[i]) + 1 {
		joined = append(joined, got[i+1:i+1+int(got[i])]...)
	}
	if !bytes.Equal(joined, payload) {
		t.Error("payload mismatch after reassembly")
	}
}

func TestSubBlockWriter_Empty(t *testing.T) {
	var out bytes.Buffer
	w := NewSubBlockWriter(&out)
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !bytes.Equal(out.Bytes(), []byte{0}) {
		t.Errorf("empty stream: got % x", out.Bytes())
	}
}
