// Package fse implements the LZFSE entropy coded blocks (bvx1 and bvx2):
// normalized weight tables, the FSE state machines for literals and for
// L, M and D values, block headers, and the encoder and decoder built on
// them.
package fse

import "math/bits"

const (
	LiteralsPerBlock = 40000
	LmdsPerBlock     = 10000

	MaxL = 315
	MaxM = 2359
	MaxD = 262139

	lSymbols = 20
	mSymbols = 20
	dSymbols = 64
	uSymbols = 256

	lStates = 64
	mStates = 64
	dStates = 256
	uStates = 1024

	nWeights = lSymbols + mSymbols + dSymbols + uSymbols

	// Bits needed per literal and per LMD in the worst case.
	maxUBits   = 10
	maxLmdBits = 54
)

// Offsets of the four tables within a Weights array.
const (
	lOffset = 0
	mOffset = lOffset + lSymbols
	dOffset = mOffset + mSymbols
	uOffset = dOffset + dSymbols
)

var (
	lExtraBits = [lSymbols]uint8{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		2, 3, 5, 8,
	}
	lBaseValue = [lSymbols]int32{
		0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
		16, 20, 28, 60,
	}
	mExtraBits = [mSymbols]uint8{
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		3, 5, 8, 11,
	}
	mBaseValue = [mSymbols]int32{
		0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
		16, 24, 56, 312,
	}
	dExtraBits [dSymbols]uint8
	dBaseValue [dSymbols]int32

	// Symbol for each L and M value.
	lSymbol [MaxL + 1]uint8
	mSymbol [MaxM + 1]uint8
)

func init() {
	for s := range dExtraBits {
		g, r := s>>2, int32(s&3)
		dExtraBits[s] = uint8(g)
		dBaseValue[s] = (4 << g) - 4 + r<<g
	}
	for s := 0; s < lSymbols; s++ {
		end := MaxL + 1
		if s+1 < lSymbols {
			end = int(lBaseValue[s+1])
		}
		for v := lBaseValue[s]; v < int32(end); v++ {
			lSymbol[v] = uint8(s)
		}
	}
	for s := 0; s < mSymbols; s++ {
		end := MaxM + 1
		if s+1 < mSymbols {
			end = int(mBaseValue[s+1])
		}
		for v := mBaseValue[s]; v < int32(end); v++ {
			mSymbol[v] = uint8(s)
		}
	}
}

// dSymbol returns the symbol for a D value.
func dSymbol(v uint32) uint8 {
	g := bits.Len32(v+4) - 3
	r := (v+4)>>uint(g) - 4
	return uint8(g<<2) + uint8(r)
}
