// Package audiobuf implements the audio buffer file source of §6.5: a raw
// little-endian 32-bit float sample file, channel 0 only, with
// out-of-range reads yielding 0.
package audiobuf

import (
	"encoding/binary"
	"math"
	"os"
)

// Buffer reads samples from a raw f32 file opened in shared-read mode, per
// §5's "audio buffer files are opened in shared-read mode and are safe to
// read concurrently from multiple engines."
type Buffer struct {
	f *os.File
}

// Open opens path as an audio buffer source. The file is not read eagerly;
// samples are pulled lazily by Sample.
func Open(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Buffer{f: f}, nil
}

// Close releases the underlying file handle.
func (b *Buffer) Close() error {
	return b.f.Close()
}

// Sample returns the value at frame index t on channel ch, per §6.5:
// frame i occupies bytes [4i, 4i+4). Any read past EOF, or a channel other
// than 0, returns 0 rather than an error, matching the reference
// implementation's "read float or 0 on error" fallback.
func (b *Buffer) Sample(t uint64, ch uint32) float32 {
	if ch != 0 {
		return 0
	}
	var buf [4]byte
	off := int64(t) * 4
	if off < 0 || t > math.MaxInt64/4 {
		return 0
	}
	n, err := b.f.ReadAt(buf[:], off)
	if n < 4 || err != nil {
		return 0
	}
	bits := binary.LittleEndian.Uint32(buf[:])
	return math.Float32frombits(bits)
}
