// Package format holds the LZFSE block magic numbers, the constants shared by
// the block codecs and the errors they report.
package format

import (
	"encoding/binary"
	"math"
)

// Block magic numbers, read as little-endian uint32 values.
const (
	MagicEOS uint32 = 0x24787662 // bvx$
	MagicRaw uint32 = 0x2D787662 // bvx-
	MagicV1  uint32 = 0x31787662 // bvx1
	MagicV2  uint32 = 0x32787662 // bvx2
	MagicVN  uint32 = 0x6E787662 // bvxn
)

const (
	// RawCutoff is the largest input that is always stored as a RAW block.
	RawCutoff = 20

	// VNCutoff is the largest input that is encoded as a VN block.
	VNCutoff = 4096

	// GoodMatchLen is the match length at which the match finder stops
	// looking for a better match one byte later.
	GoodMatchLen = 40

	// ClampInterval is how often the encoder history is re-anchored.
	ClampInterval = 0x40000000

	// MaxBufferLen is the largest input EncodeBytes accepts and the largest
	// output a flat decode may produce.
	MaxBufferLen = math.MaxInt32

	MagicSize     = 4
	RawHeaderSize = 8
	VNHeaderSize  = 12
	V1HeaderSize  = 772 // 50 bytes of fields, 720 of weights, 2 of padding
	V1WeightsAt   = 50
	V2HeaderSize  = 32
	V2WeightsMax  = 630
)

// Magic returns the magic number at the start of b.
func Magic(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// Name returns the four character tag for a magic number, or "" if m is not
// a known block type.
func Name(m uint32) string {
	switch m {
	case MagicEOS, MagicRaw, MagicV1, MagicV2, MagicVN:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], m)
		return string(b[:])
	}
	return ""
}
