package gifenc

import (
	"errors"
	"testing"

	"github.com/AnyUserName/gifcap/internal/sink"
)

func TestBlockWriters_FrozenSink(t *testing.T) {
	writers := map[string]func(*sink.Sink) error{
		"screen":     func(s *sink.Sink) error { return writeLogicalScreen(s, 4, 4, tableSizeField) },
		"table":      func(s *sink.Sink) error { return writeColorTable(s, []byte{1, 2, 3}, 2) },
		"loop":       func(s *sink.Sink) error { return writeLoopExtension(s, LoopForever) },
		"control":    func(s *sink.Sink) error { return writeGraphicControl(s, DisposeBackground, true, 3, 10) },
		"descriptor": func(s *sink.Sink) error { return writeImageDescriptor(s, 4, 4, true) },
		"trailer":    writeTrailer,
	}
	for name, write := range writers {
		s := sink.New(0)
		if err := write(s); err != nil {
			t.Errorf("%s: open sink: %v", name, err)
		}
		n := s.Len()
		s.Freeze()
		if err := write(s); !errors.Is(err, sink.ErrFrozen) {
			t.Errorf("%s: frozen sink: got %v, want ErrFrozen", name, err)
		}
		if s.Len() != n {
			t.Errorf("%s: frozen sink grew from %d to %d bytes", name, n, s.Len())
		}
	}
}

func TestFinish_ReportsRejectedWrite(t *testing.T) {
	enc, err := New(2, 2, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.Start(); err != nil {
		t.Fatal(err)
	}
	enc.out.Freeze()
	if err := enc.Finish(); !errors.Is(err, sink.ErrFrozen) {
		t.Errorf("Finish on frozen output: got %v, want ErrFrozen", err)
	}
	if enc.Finished() {
		t.Error("encoder marked finished after a rejected write")
	}
}
