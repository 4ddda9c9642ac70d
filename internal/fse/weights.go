package fse

import (
	"encoding/binary"
	"math/bits"

	"github.com/andybalholm/lzfse/internal/format"
	"github.com/andybalholm/lzfse/internal/lz"
)

// V1WeightsSize is the size of the weight tables in a bvx1 header.
const V1WeightsSize = 2 * nWeights

// Weights holds the normalized frequency tables for L, M, D and literal
// symbols, in that order. The weights of each table add up to at most its
// number of states.
type Weights [nWeights]uint16

func (w *Weights) l() []uint16 { return w[lOffset:mOffset] }
func (w *Weights) m() []uint16 { return w[mOffset:dOffset] }
func (w *Weights) d() []uint16 { return w[dOffset:uOffset] }
func (w *Weights) u() []uint16 { return w[uOffset:] }

// Count sets w to the normalized symbol frequencies of lmds and literals.
// D values of 0 stand for a repeated distance and count as symbol 0.
func (w *Weights) Count(lmds []lz.Lmd, literals []byte) {
	var counts [nWeights]uint32
	for _, x := range lmds {
		counts[lOffset+int(lSymbol[x.L])]++
		counts[mOffset+int(mSymbol[x.M])]++
		counts[dOffset+int(dSymbol(x.D))]++
	}
	for _, b := range literals {
		counts[uOffset+int(b)]++
	}
	normalize(w.l(), counts[lOffset:mOffset], uint32(len(lmds)), lStates)
	normalize(w.m(), counts[mOffset:dOffset], uint32(len(lmds)), mStates)
	normalize(w.d(), counts[dOffset:uOffset], uint32(len(lmds)), dStates)
	normalize(w.u(), counts[uOffset:], uint32(len(literals)), uStates)
}

// normalize scales counts, which add up to total, so that they add up to
// states, and stores them in w. Every symbol that occurs keeps a weight of
// at least 1.
func normalize(w []uint16, counts []uint32, total, states uint32) {
	for i := range w {
		w[i] = 0
	}
	if total == 0 {
		return
	}
	shift := uint(bits.LeadingZeros32(states))
	multiply := uint32(1<<31) / total
	round := uint32(1) << (shift - 1)
	remaining := int32(states)
	var maxWeight uint32
	maxIndex := 0
	for i, c := range counts {
		if c == 0 {
			continue
		}
		f := (c*multiply + round) >> shift
		if f == 0 {
			f = 1
		}
		w[i] = uint16(f)
		remaining -= int32(f)
		if f > maxWeight {
			maxWeight = f
			maxIndex = i
		}
	}
	if -remaining < int32(w[maxIndex])/4 {
		w[maxIndex] = uint16(int32(w[maxIndex]) + remaining)
		return
	}

	// Too much was handed out: take it back from the largest weights first.
	overflow := uint32(-remaining)
	for shift := 3; shift >= 0; shift-- {
		for i := range w {
			if overflow == 0 {
				return
			}
			if w[i] == 0 {
				continue
			}
			n := min((uint32(w[i])-1)>>uint(shift), overflow)
			w[i] -= uint16(n)
			overflow -= n
		}
	}
}

func total(w []uint16) uint32 {
	var t uint32
	for _, x := range w {
		t += uint32(x)
	}
	return t
}

func (w *Weights) check() error {
	if total(w.l()) > lStates || total(w.m()) > mStates || total(w.d()) > dStates || total(w.u()) > uStates {
		*w = Weights{}
		return format.Fse(format.BadWeightPayload)
	}
	return nil
}

// AppendV1 appends the bvx1 encoding of w: every weight as a little-endian
// uint16.
func (w *Weights) AppendV1(dst []byte) []byte {
	for _, x := range w {
		dst = binary.LittleEndian.AppendUint16(dst, x)
	}
	return dst
}

// LoadV1 decodes weights stored by AppendV1.
func (w *Weights) LoadV1(src []byte) error {
	switch {
	case len(src) < V1WeightsSize:
		return format.Fse(format.WeightPayloadUnderflow)
	case len(src) > V1WeightsSize:
		return format.Fse(format.WeightPayloadOverflow)
	}
	for i := range w {
		w[i] = binary.LittleEndian.Uint16(src[2*i:])
	}
	return w.check()
}

// Variable length weight codes, indexed by the low 5 bits of the input.
var (
	weightBits = [32]uint8{
		2, 3, 2, 5, 2, 3, 2, 8, 2, 3, 2, 5, 2, 3, 2, 14,
		2, 3, 2, 5, 2, 3, 2, 8, 2, 3, 2, 5, 2, 3, 2, 14,
	}
	weightValues = [32]uint16{
		0, 2, 1, 4, 0, 3, 1, 0, 0, 2, 1, 5, 0, 3, 1, 0,
		0, 2, 1, 6, 0, 3, 1, 0, 0, 2, 1, 7, 0, 3, 1, 0,
	}
)

func decodeWeight(u uint32) (w uint16, n uint8) {
	i := u & 0x1F
	n = weightBits[i]
	switch n {
	case 8:
		return 8 + uint16(u>>4&0xF), n
	case 14:
		return 24 + uint16(u>>4&0x3FF), n
	}
	return weightValues[i], n
}

func encodeWeight(w uint16) (u uint32, n uint8) {
	switch {
	case w == 0:
		return 0, 2
	case w == 1:
		return 2, 2
	case w == 2:
		return 1, 3
	case w == 3:
		return 5, 3
	case w < 8:
		return uint32(w-4)<<3 + 3, 5
	case w < 24:
		return uint32(w-8)<<4 + 7, 8
	}
	return uint32(w-24)<<4 + 15, 14
}

// AppendV2 appends the compact bvx2 encoding of w.
func (w *Weights) AppendV2(dst []byte) []byte {
	var accum uint64
	var n uint8
	for _, x := range w {
		u, k := encodeWeight(x)
		accum |= uint64(u) << n
		n += k
		for n >= 8 {
			dst = append(dst, byte(accum))
			accum >>= 8
			n -= 8
		}
	}
	if n > 0 {
		dst = append(dst, byte(accum))
	}
	return dst
}

// LoadV2 decodes weights stored by AppendV2. src must hold exactly the
// encoded weights.
func (w *Weights) LoadV2(src []byte) error {
	var accum uint32
	n := 0
	i := 0
	for j := range w {
		for i < len(src) && n <= 24 {
			accum |= uint32(src[i]) << uint(n)
			n += 8
			i++
		}
		x, k := decodeWeight(accum)
		w[j] = x
		accum >>= k
		n -= int(k)
		if n < -32 {
			n = -32
		}
	}
	switch {
	case n < 0:
		*w = Weights{}
		return format.Fse(format.WeightPayloadUnderflow)
	case n >= 8 || i != len(src):
		*w = Weights{}
		return format.Fse(format.WeightPayloadOverflow)
	}
	return w.check()
}
