package vn

import (
	"encoding/binary"

	"github.com/andybalholm/lzfse/internal/format"
	"github.com/andybalholm/lzfse/internal/lz"
)

// Encoder writes a single VN block. It implements lz.Backend.
type Encoder struct {
	mark  int
	prevD uint32
	nRaw  uint32
}

func (e *Encoder) Init(dst []byte, total int) []byte {
	e.mark = len(dst)
	e.prevD = 0
	e.nRaw = 0
	return append(dst, make([]byte, format.VNHeaderSize)...)
}

func (e *Encoder) Limits() lz.Limits {
	return lz.Limits{MaxL: MaxL, MaxM: MaxM, MaxD: MaxD}
}

func (e *Encoder) Unit() lz.MatchUnit {
	return lz.MatchUnit{Len: 3, Mask: 0x00FFFFFF}
}

// appendLiterals writes literal runs until fewer than least literals are
// left, and returns the rest.
func appendLiterals(dst, lits []byte, least int) ([]byte, []byte) {
	for len(lits) >= 0x10 {
		n := len(lits)
		if n > MaxL {
			n = MaxL
		}
		dst = appendLrgL(dst, uint32(n))
		dst = append(dst, lits[:n]...)
		lits = lits[n:]
	}
	if len(lits) > 0 && len(lits) >= least {
		dst = appendSmlL(dst, uint32(len(lits)))
		dst = append(dst, lits...)
		lits = nil
	}
	return dst, lits
}

func (e *Encoder) PushLiterals(dst, literals []byte) []byte {
	e.nRaw += uint32(len(literals))
	dst, _ = appendLiterals(dst, literals, 1)
	return dst
}

func (e *Encoder) PushMatch(dst, literals []byte, m, d uint32) []byte {
	e.nRaw += uint32(len(literals)) + m
	dst, literals = appendLiterals(dst, literals, 4)
	l := uint32(len(literals))
	n := min(matchLenX(l), m)
	switch {
	case d == e.prevD && l == 0:
		dst = appendSmlM(dst, n)
	case d == e.prevD:
		dst = appendPreD(dst, l, n)
	case d < 0x600:
		dst = appendSmlD(dst, l, n, d)
	case d >= 0x4000 || m == n || m > 0x22:
		dst = appendLrgD(dst, l, n, d)
	default:
		// The whole match fits in a MedD.
		n = m
		dst = appendMedD(dst, l, n, d)
	}
	dst = append(dst, literals...)
	e.prevD = d
	for m -= n; m > 0; {
		if m < 0x10 {
			return appendSmlM(dst, m)
		}
		k := min(m, MaxM)
		dst = appendLrgM(dst, k)
		m -= k
	}
	return dst
}

// Finalize appends the end-of-stream operation and fills in the block
// header.
func (e *Encoder) Finalize(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, eosByte)
	h := dst[e.mark:]
	binary.LittleEndian.PutUint32(h, format.MagicVN)
	binary.LittleEndian.PutUint32(h[4:], e.nRaw)
	binary.LittleEndian.PutUint32(h[8:], uint32(len(h)-format.VNHeaderSize))
	return dst
}
