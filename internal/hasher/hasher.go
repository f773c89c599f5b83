package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"io"

	"github.com/cespare/xxhash/v2"
)

// ContentHash returns the xxHash64 of data as hex, truncated to hexLen
// characters when 0 < hexLen < 16. Output files are named with the first
// 8 characters; manifests record 16.
func ContentHash(data []byte, hexLen int) string {
	return truncHex(xxhash.Sum64(data), hexLen)
}

// ContentHashReader streams r through xxHash64.
func ContentHashReader(r io.Reader, hexLen int) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return truncHex(h.Sum64(), hexLen), nil
}

// FrameHash fingerprints a raw frame. Two frames with equal dimensions
// and equal hashes are treated as repeats.
func FrameHash(pix []byte) uint64 {
	return xxhash.Sum64(pix)
}

func truncHex(v uint64, hexLen int) string {
	full := hex.EncodeToString(binary.BigEndian.AppendUint64(nil, v))
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}
