// Package lz holds the pieces shared by the LZFSE block codecs: the LMD
// triple, the output sinks that decoders write into, the backend interface
// that encoders implement, and the streaming match finder that drives them.
package lz

// An Lmd is one LZ77 token: L literal bytes, followed by a copy of M bytes
// from D bytes back.
type Lmd struct {
	L uint32
	M uint32
	D uint32
}

// Limits holds the largest L, M and D a block type can represent in one
// token.
type Limits struct {
	MaxL uint32
	MaxM uint32
	MaxD uint32
}

// MatchUnit describes how a backend's match finder hashes positions.
type MatchUnit struct {
	Len  int    // minimum match length
	Mask uint32 // applied to the little-endian word at a position
}

const (
	hashBits = 14
	hashMul  = 0x9E3779B1
)

// Hash returns the history table bucket for the word u.
func (mu MatchUnit) Hash(u uint32) uint32 {
	return ((u & mu.Mask) * hashMul) >> (32 - hashBits)
}

// MatchUs compares the words at two positions and returns 4 if all four
// bytes match, Len if the masked bytes match, or 0.
func (mu MatchUnit) MatchUs(a, b uint32) int {
	x := a ^ b
	switch {
	case x == 0:
		return 4
	case x&mu.Mask == 0:
		return mu.Len
	}
	return 0
}
