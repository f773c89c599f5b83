package gifenc

import (
	"github.com/AnyUserName/gifcap/internal/sink"
)

// Block introducers and labels.
const (
	extensionIntroducer = 0x21
	imageSeparator      = 0x2c
	trailer             = 0x3b

	graphicControlLabel = 0xf9
	applicationLabel    = 0xff
)

const (
	signature = "GIF89a"

	// Every table this encoder writes has 2^(7+1) = 256 entries.
	tableSizeField = 7
	tableEntries   = 1 << (tableSizeField + 1)

	// 3 bits of color resolution, all set.
	colorResolution = 0x70
	colorTableFlag  = 0x80
)

// The Logical Screen Descriptor: canvas size, global table flags,
// background index and aspect ratio.
func writeLogicalScreen(s *sink.Sink, width, height int, sizeField byte) error {
	s.WriteShort(uint16(width))
	s.WriteShort(uint16(height))
	s.WriteByte(colorTableFlag | colorResolution | sizeField)
	s.WriteByte(0) // background color index
	s.WriteByte(0) // pixel aspect ratio
	return s.Err()
}

// writeColorTable writes pal (R,G,B triples) padded with zeros to
// entries colors.
func writeColorTable(s *sink.Sink, pal []byte, entries int) error {
	n := 3 * entries
	if len(pal) > n {
		pal = pal[:n]
	}
	s.Write(pal)
	for i := len(pal); i < n; i++ {
		s.WriteByte(0)
	}
	return s.Err()
}

// writeLoopExtension writes the NETSCAPE2.0 application extension.
// loop 0 repeats forever.
func writeLoopExtension(s *sink.Sink, loop int) error {
	s.WriteByte(extensionIntroducer)
	s.WriteByte(applicationLabel)
	s.WriteByte(11) // block size
	s.WriteString("NETSCAPE2.0")
	s.WriteByte(3) // sub-block size
	s.WriteByte(1) // loop sub-block id
	s.WriteShort(uint16(loop))
	s.WriteByte(0) // block terminator
	return s.Err()
}

// writeGraphicControl writes the Graphic Control Extension for one frame.
// delay is in hundredths of a second.
func writeGraphicControl(s *sink.Sink, dispose int, transparent bool, transIndex byte, delay int) error {
	var flags byte
	if transparent {
		flags = 1
	}
	flags |= byte(dispose&7) << 2

	s.WriteByte(extensionIntroducer)
	s.WriteByte(graphicControlLabel)
	s.WriteByte(4) // block size
	s.WriteByte(flags)
	s.WriteShort(uint16(delay))
	s.WriteByte(transIndex)
	s.WriteByte(0) // block terminator
	return s.Err()
}

// writeImageDescriptor writes a full-canvas image descriptor. With
// localTable set a 256-entry local color table must follow.
func writeImageDescriptor(s *sink.Sink, width, height int, localTable bool) error {
	s.WriteByte(imageSeparator)
	s.WriteShort(0) // left
	s.WriteShort(0) // top
	s.WriteShort(uint16(width))
	s.WriteShort(uint16(height))
	if localTable {
		s.WriteByte(colorTableFlag | tableSizeField)
	} else {
		s.WriteByte(0)
	}
	return s.Err()
}

func writeTrailer(s *sink.Sink) error {
	s.WriteByte(trailer)
	return s.Err()
}
