package fse

import (
	"math/bits"

	"github.com/andybalholm/lzfse/internal/bitio"
)

// encSymbol holds the encoder transform for one symbol. The encoder state
// lies in [0, nStates).
type encSymbol struct {
	s0     int16 // states below s0 emit k-1 bits, the rest k
	k      int16
	delta0 int16
	delta1 int16
}

func buildEncTable(t []encSymbol, w []uint16, nStates int) {
	nClz := bits.LeadingZeros32(uint32(nStates))
	offset := 0
	for i, x := range w {
		f := int(x)
		if f == 0 {
			t[i] = encSymbol{}
			continue
		}
		k := bits.LeadingZeros32(uint32(f)) - nClz
		e := encSymbol{
			s0:     int16(f<<uint(k) - nStates),
			k:      int16(k),
			delta0: int16(offset - f + nStates>>uint(k)),
		}
		if k > 0 {
			e.delta1 = int16(offset - f + nStates>>uint(k-1))
		}
		t[i] = e
		offset += f
	}
}

// encode pushes the bits for symbol e and advances the state.
func (e encSymbol) encode(w *bitio.Writer, state *int32) {
	s := *state
	n, delta := e.k-1, e.delta1
	if s >= int32(e.s0) {
		n, delta = e.k, e.delta0
	}
	w.Push(uint64(s)&(1<<uint(n)-1), uint(n))
	*state = int32(delta) + s>>uint(n)
}

// decSymbol is one state of a literal decoder.
type decSymbol struct {
	k      uint8
	symbol uint8
	delta  int16
}

// decValue is one state of an L, M or D decoder. A step pulls k state bits
// followed by vbits value bits.
type decValue struct {
	total uint8 // k + vbits
	vbits uint8
	delta int16
	vbase int32
}

// spread calls fn for every state of a table of nStates states with the
// weights w, passing the symbol, the number of bits and the state delta.
// States past the sum of the weights are left alone.
func spread(w []uint16, nStates int, fn func(state, symbol, k, delta int)) {
	nClz := bits.LeadingZeros32(uint32(nStates))
	state := 0
	for i, x := range w {
		f := int(x)
		if f == 0 {
			continue
		}
		k := bits.LeadingZeros32(uint32(f)) - nClz
		j0 := (2*nStates)>>uint(k) - f
		for j := 0; j < f; j++ {
			if j < j0 {
				fn(state, i, k, (f+j)<<uint(k)-nStates)
			} else {
				fn(state, i, k-1, (j-j0)<<uint(k-1))
			}
			state++
		}
	}
}

func buildDecTable(t []decSymbol, w []uint16) {
	for i := range t {
		t[i] = decSymbol{}
	}
	spread(w, len(t), func(state, symbol, k, delta int) {
		t[state] = decSymbol{k: uint8(k), symbol: uint8(symbol), delta: int16(delta)}
	})
}

func buildValueTable(t []decValue, w []uint16, extra []uint8, base []int32) {
	for i := range t {
		t[i] = decValue{}
	}
	spread(w, len(t), func(state, symbol, k, delta int) {
		t[state] = decValue{
			total: uint8(k) + extra[symbol],
			vbits: extra[symbol],
			delta: int16(delta),
			vbase: base[symbol],
		}
	})
}

func (t decSymbol) decode(r *bitio.Reader, state *int32) byte {
	*state = int32(t.delta) + int32(r.Pull(int(t.k)))
	return t.symbol
}

func (t decValue) decode(r *bitio.Reader, state *int32) uint32 {
	x := r.Pull(int(t.total))
	*state = int32(t.delta) + int32(x>>t.vbits)
	return uint32(t.vbase) + x&(1<<t.vbits-1)
}
