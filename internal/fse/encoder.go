package fse

import (
	"github.com/andybalholm/lzfse/internal/bitio"
	"github.com/andybalholm/lzfse/internal/format"
	"github.com/andybalholm/lzfse/internal/lz"
)

// Encoder collects literals and LMDs from the match finder and writes them
// out as FSE blocks of up to LmdsPerBlock LMDs and LiteralsPerBlock
// literals. It implements lz.Backend.
type Encoder struct {
	// V1 selects the uncompressed bvx1 header layout instead of bvx2.
	V1 bool

	literals []byte
	lmds     []lz.Lmd
	nMatch   uint32
	prevD    uint32

	weights Weights
	l       [lSymbols]encSymbol
	m       [mSymbols]encSymbol
	d       [dSymbols]encSymbol
	u       [uSymbols]encSymbol
	bw      bitio.Writer
	scratch []byte

	literalState [4]int32
	lmdState     [3]int32
}

// NewEncoder returns an Encoder writing bvx2 blocks.
func NewEncoder() *Encoder {
	return &Encoder{
		literals: make([]byte, 0, LiteralsPerBlock+4),
		lmds:     make([]lz.Lmd, 0, LmdsPerBlock),
	}
}

func (e *Encoder) reset() {
	e.literals = e.literals[:0]
	e.lmds = e.lmds[:0]
	e.nMatch = 0
	e.prevD = 0
}

func (e *Encoder) Init(dst []byte, total int) []byte {
	e.reset()
	return dst
}

func (e *Encoder) Limits() lz.Limits {
	return lz.Limits{MaxL: MaxL, MaxM: MaxM, MaxD: MaxD}
}

func (e *Encoder) Unit() lz.MatchUnit {
	return lz.MatchUnit{Len: 4, Mask: 0xFFFFFFFF}
}

func (e *Encoder) PushLiterals(dst, literals []byte) []byte {
	return e.PushMatch(dst, literals, 0, 1)
}

func (e *Encoder) PushMatch(dst, literals []byte, m, d uint32) []byte {
	for !e.push(&literals, &m, d) {
		dst = e.emit(dst)
	}
	return dst
}

func (e *Encoder) Finalize(dst []byte) []byte {
	if len(e.lmds) > 0 {
		dst = e.emit(dst)
	}
	return dst
}

// push adds as much of the literals and match as fits in the current block.
// It reports whether everything fit; if not, the block must be emitted and
// push called again with what is left.
func (e *Encoder) push(literals *[]byte, m *uint32, d uint32) bool {
	for len(*literals) > MaxL {
		if len(e.lmds) == LmdsPerBlock {
			return false
		}
		n := min(MaxL, LiteralsPerBlock-len(e.literals))
		if n == 0 {
			return false
		}
		e.takeLiterals(literals, n)
		e.pushLmd(uint32(n), 0, 1)
		if n < MaxL {
			return false
		}
	}
	if len(e.lmds) == LmdsPerBlock {
		return false
	}
	l := len(*literals)
	if room := LiteralsPerBlock - len(e.literals); l > room {
		if room > 0 {
			e.takeLiterals(literals, room)
			e.pushLmd(uint32(room), 0, 1)
		}
		return false
	}
	e.takeLiterals(literals, l)
	for *m > MaxM {
		e.pushLmd(uint32(l), MaxM, d)
		*m -= MaxM
		l = 0
		if len(e.lmds) == LmdsPerBlock {
			return false
		}
	}
	e.pushLmd(uint32(l), *m, d)
	*m = 0
	return true
}

func (e *Encoder) takeLiterals(literals *[]byte, n int) {
	e.literals = append(e.literals, (*literals)[:n]...)
	*literals = (*literals)[n:]
}

// pushLmd records an LMD, replacing a distance equal to the previous one
// with 0.
func (e *Encoder) pushLmd(l, m, d uint32) {
	if d == e.prevD {
		d = 0
	} else {
		e.prevD = d
	}
	e.lmds = append(e.lmds, lz.Lmd{L: l, M: m, D: d})
	e.nMatch += m
}

// emit writes the buffered literals and LMDs as one block.
func (e *Encoder) emit(dst []byte) []byte {
	var h Header
	h.NRaw = uint32(len(e.literals)) + e.nMatch
	e.weights.Count(e.lmds, e.literals)
	if len(e.literals) > 0 {
		for len(e.literals)%4 != 0 {
			e.literals = append(e.literals, e.literals[0])
		}
	}
	h.NLiterals = uint32(len(e.literals))
	h.NLmds = uint32(len(e.lmds))

	buildEncTable(e.l[:], e.weights.l(), lStates)
	buildEncTable(e.m[:], e.weights.m(), mStates)
	buildEncTable(e.d[:], e.weights.d(), dStates)
	buildEncTable(e.u[:], e.weights.u(), uStates)

	mark := len(dst)
	fixed := format.V2HeaderSize
	v1 := e.V1
	if !v1 {
		e.scratch = e.weights.AppendV2(e.scratch[:0])
		v1 = format.V2HeaderSize+len(e.scratch) >= format.V1HeaderSize
	}
	if v1 {
		fixed = format.V1WeightsAt
		e.scratch = e.weights.AppendV1(e.scratch[:0])
	}
	h.WeightsSize = uint32(len(e.scratch))
	for i := 0; i < fixed; i++ {
		dst = append(dst, 0)
	}
	dst = append(dst, e.scratch...)
	if v1 {
		dst = append(dst, 0, 0)
	}

	start := len(dst)
	var pad int
	dst, pad = e.encodeLiterals(dst)
	h.LiteralPad = uint32(pad)
	h.LiteralPayload = uint32(len(dst) - start)
	for i, s := range e.literalState {
		h.LiteralState[i] = uint16(s)
	}

	start = len(dst)
	dst, pad = e.encodeLmds(dst)
	h.LmdPad = uint32(pad)
	h.LmdPayload = uint32(len(dst) - start)
	for i, s := range e.lmdState {
		h.LmdState[i] = uint16(s)
	}

	if v1 {
		e.scratch = h.AppendV1(e.scratch[:0])
	} else {
		e.scratch = h.AppendV2(e.scratch[:0])
	}
	copy(dst[mark:], e.scratch)
	if debug {
		debugf("block: %d raw bytes, %d literals, %d lmds, %d bytes", h.NRaw, h.NLiterals, h.NLmds, len(dst)-mark)
	}
	e.reset()
	return dst
}

// encodeLiterals appends the literal stream, encoded back to front in groups
// of four, one group per flush.
func (e *Encoder) encodeLiterals(dst []byte) ([]byte, int) {
	lits := e.literals
	var s [4]int32
	e.bw.Reset(dst)
	for i := len(lits); i > 0; i -= 4 {
		e.u[lits[i-1]].encode(&e.bw, &s[3])
		e.u[lits[i-2]].encode(&e.bw, &s[2])
		e.u[lits[i-3]].encode(&e.bw, &s[1])
		e.u[lits[i-4]].encode(&e.bw, &s[0])
		e.bw.Flush()
	}
	e.literalState = s
	return e.bw.Finish()
}

// encodeLmds appends the LMD stream: 8 zero bytes, then the LMDs encoded
// back to front.
func (e *Encoder) encodeLmds(dst []byte) ([]byte, int) {
	var l, m, d int32
	e.bw.Reset(append(dst, 0, 0, 0, 0, 0, 0, 0, 0))
	for i := len(e.lmds) - 1; i >= 0; i-- {
		x := e.lmds[i]
		s := dSymbol(x.D)
		e.bw.Push(uint64(int32(x.D)-dBaseValue[s]), uint(dExtraBits[s]))
		e.d[s].encode(&e.bw, &d)
		s = mSymbol[x.M]
		e.bw.Push(uint64(int32(x.M)-mBaseValue[s]), uint(mExtraBits[s]))
		e.m[s].encode(&e.bw, &m)
		s = lSymbol[x.L]
		e.bw.Push(uint64(int32(x.L)-lBaseValue[s]), uint(lExtraBits[s]))
		e.l[s].encode(&e.bw, &l)
		e.bw.Flush()
	}
	e.lmdState = [3]int32{l, m, d}
	return e.bw.Finish()
}
