// Package raw encodes and decodes uncompressed LZFSE blocks.
//
// A raw block is the magic "bvx-", the payload length as a little-endian
// uint32, and the payload bytes.
package raw

import (
	"encoding/binary"

	"github.com/andybalholm/lzfse/internal/format"
)

// Append appends a raw block holding src to dst. src must be shorter than
// 1<<32 bytes.
func Append(dst, src []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, format.MagicRaw)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(src)))
	return append(dst, src...)
}

// Header is a decoded raw block header.
type Header struct {
	NRaw uint32
}

// ParseHeader decodes the header at the start of b, which must hold at
// least format.RawHeaderSize bytes.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < format.RawHeaderSize {
		return Header{}, format.ErrPayloadUnderflow
	}
	if m := format.Magic(b); m != format.MagicRaw {
		return Header{}, &format.BadBlockError{Magic: m}
	}
	return Header{NRaw: binary.LittleEndian.Uint32(b[4:])}, nil
}
