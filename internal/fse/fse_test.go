package fse

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"

	"github.com/andybalholm/lzfse/internal/format"
	"github.com/andybalholm/lzfse/internal/lz"
)

func TestWeightCode(t *testing.T) {
	for w := uint16(0); w < 1048; w++ {
		u, n := encodeWeight(w)
		v, m := decodeWeight(u)
		if v != w || m != n {
			t.Fatalf("weight %d: encoded as %#x/%d, decoded as %d/%d", w, u, n, v, m)
		}
	}
}

func TestDSymbol(t *testing.T) {
	for s := 0; s < dSymbols; s++ {
		lo := uint32(dBaseValue[s])
		hi := lo + 1<<dExtraBits[s] - 1
		if dSymbol(lo) != uint8(s) || dSymbol(hi) != uint8(s) {
			t.Fatalf("symbol %d: range %d..%d maps to %d..%d", s, lo, hi, dSymbol(lo), dSymbol(hi))
		}
	}
	if hi := uint32(dBaseValue[dSymbols-1]) + 1<<dExtraBits[dSymbols-1] - 1; hi != MaxD {
		t.Fatalf("largest D = %d, want %d", hi, MaxD)
	}
	if lSymbol[MaxL] != lSymbols-1 || mSymbol[MaxM] != mSymbols-1 {
		t.Fatal("largest L or M does not map to the last symbol")
	}
}

func checkNormalize(t *testing.T, counts []uint32) {
	t.Helper()
	for _, states := range []uint32{64, 256, 1024} {
		c := append([]uint32(nil), counts...)
		for {
			var sum uint32
			for _, x := range c {
				sum += x
			}
			if sum == 0 {
				break
			}
			w := make([]uint16, len(c))
			normalize(w, c, sum, states)
			if got := total(w); got != states {
				t.Fatalf("counts %v into %d states: total %d", c, states, got)
			}
			for i := range c {
				if c[i] != 0 && w[i] == 0 {
					t.Fatalf("counts %v into %d states: symbol %d lost", c, states, i)
				}
			}
			for i := range c {
				if c[i] != 0 {
					c[i]--
				}
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	checkNormalize(t, []uint32{2048, 1024, 512, 256, 128, 64, 32, 16, 8, 4, 2, 1})
	checkNormalize(t, []uint32{512, 511, 510, 509, 508, 507, 506, 505, 504, 502, 501, 500})
	checkNormalize(t, []uint32{65535, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	checkNormalize(t, []uint32{65535, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	checkNormalize(t, []uint32{1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024, 1024})
}

func TestWeightsOverflow(t *testing.T) {
	for _, off := range []int{lOffset, mOffset, dOffset, uOffset} {
		var w Weights
		w[off] = map[int]uint16{lOffset: lStates, mOffset: mStates, dOffset: dStates, uOffset: uStates}[off]
		w[off+1] = 1

		b := w.AppendV1(nil)
		var v1 Weights
		if err := v1.LoadV1(b); !errors.Is(err, format.Fse(format.BadWeightPayload)) {
			t.Errorf("v1 table at %d: got %v", off, err)
		}
		b = w.AppendV2(nil)
		var v2 Weights
		if err := v2.LoadV2(b); !errors.Is(err, format.Fse(format.BadWeightPayload)) {
			t.Errorf("v2 table at %d: got %v", off, err)
		}
	}
}

func TestWeightsV2Length(t *testing.T) {
	var w Weights
	w.Count([]lz.Lmd{{L: 3, M: 20, D: 100}, {L: 0, M: 4, D: 0}}, []byte("hello, world"))
	b := w.AppendV2(nil)
	if len(b) > format.V2WeightsMax {
		t.Fatalf("weights encoded in %d bytes", len(b))
	}
	var got Weights
	if err := got.LoadV2(b); err != nil {
		t.Fatal(err)
	}
	if got != w {
		t.Fatal("weights changed in a round trip")
	}
	if err := got.LoadV2(append(b, 0)); !errors.Is(err, format.Fse(format.WeightPayloadOverflow)) {
		t.Fatalf("extra byte: got %v", err)
	}
	if err := got.LoadV2(b[:len(b)-1]); !errors.Is(err, format.Fse(format.WeightPayloadUnderflow)) {
		t.Fatalf("missing byte: got %v", err)
	}
}

func TestHeaderLayout(t *testing.T) {
	h := Header{
		NRaw:           123456,
		NLiterals:      4000,
		LiteralPayload: 3000,
		LiteralPad:     3,
		LiteralState:   [4]uint16{1, 1023, 512, 7},
		NLmds:          900,
		LmdPayload:     5000,
		LmdPad:         0,
		LmdState:       [3]uint16{63, 0, 255},
		WeightsSize:    100,
	}
	b := h.AppendV2(nil)
	if len(b) != format.V2HeaderSize {
		t.Fatalf("v2 header is %d bytes", len(b))
	}
	got, err := ParseHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	want := h
	want.HeaderSize = format.V2HeaderSize + 100
	want.PayloadSize = 8000
	if got != want {
		t.Fatalf("v2: got %+v, want %+v", got, want)
	}

	b = h.AppendV1(nil)
	if len(b) != format.V1WeightsAt {
		t.Fatalf("v1 fields are %d bytes", len(b))
	}
	b = append(b, make([]byte, V1WeightsSize+2)...)
	if len(b) != format.V1HeaderSize {
		t.Fatalf("v1 header is %d bytes", len(b))
	}
	got, err = ParseHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	want.WeightsSize = V1WeightsSize
	want.HeaderSize = format.V1HeaderSize
	if got != want {
		t.Fatalf("v1: got %+v, want %+v", got, want)
	}
}

func TestHeaderValidation(t *testing.T) {
	good := Header{NLiterals: 4, LiteralPayload: 5, NLmds: 1, LmdPayload: 16, NRaw: 10, WeightsSize: 10}
	cases := []struct {
		name string
		edit func(h *Header)
		want error
	}{
		{"odd literal count", func(h *Header) { h.NLiterals = 5 }, format.Fse(format.BadLiteralCount)},
		{"too many literals", func(h *Header) { h.NLiterals = LiteralsPerBlock + 4 }, format.Fse(format.BadLiteralCount)},
		{"literal payload", func(h *Header) { h.LiteralPayload = 2000 }, format.Fse(format.BadLiteralPayload)},
		{"too many lmds", func(h *Header) { h.NLmds = LmdsPerBlock + 1 }, format.Fse(format.BadLmdCount)},
		{"short lmd payload", func(h *Header) { h.LmdPayload = 7 }, format.Fse(format.BadLmdCount)},
		{"raw count", func(h *Header) { h.NRaw = 4 + MaxM + 1 }, format.Fse(format.BadRawByteCount)},
		{"literal state", func(h *Header) { h.LiteralState[2] = 1000; h.LiteralState[3] = 1023 }, nil},
		{"lmd state", func(h *Header) { h.LmdState[0] = lStates }, format.Fse(format.BadLmdState)},
	}
	for _, c := range cases {
		h := good
		c.edit(&h)
		_, err := ParseHeader(h.AppendV2(nil))
		if c.want == nil {
			if err != nil {
				t.Errorf("%s: %v", c.name, err)
			}
			continue
		}
		if !errors.Is(err, c.want) {
			t.Errorf("%s: got %v, want %v", c.name, err, c.want)
		}
	}

	h := good
	b := h.AppendV1(nil)
	b = append(b, make([]byte, V1WeightsSize+2)...)
	b[8] = 1 // payload smaller than the two streams
	if _, err := ParseHeader(b); !errors.Is(err, format.Fse(format.BadPayloadCount)) {
		t.Errorf("v1 payload count: got %v", err)
	}
}

type op struct {
	lits []byte
	m, d uint32
}

// randomOps returns a token sequence and the output it decodes to.
func randomOps(rnd *rand.Rand, n int, maxLits, maxM int) ([]op, []byte) {
	var ops []op
	var out []byte
	for i := 0; i < n; i++ {
		lits := make([]byte, rnd.Intn(maxLits+1))
		for j := range lits {
			lits[j] = byte('a' + rnd.Intn(1+rnd.Intn(26)))
		}
		out = append(out, lits...)
		var m, d uint32
		if len(out) > 0 {
			m = uint32(rnd.Intn(maxM + 1))
			d = uint32(1 + rnd.Intn(min(len(out), MaxD)))
			if rnd.Intn(4) == 0 && len(ops) > 0 && ops[len(ops)-1].d != 0 {
				d = ops[len(ops)-1].d
			}
		}
		if len(lits) == 0 && m == 0 {
			continue
		}
		for k := uint32(0); k < m; k++ {
			out = append(out, out[len(out)-int(d)])
		}
		ops = append(ops, op{lits, m, d})
	}
	return ops, out
}

func encodeOps(e *Encoder, ops []op) []byte {
	dst := e.Init(nil, -1)
	for _, o := range ops {
		if o.m == 0 {
			dst = e.PushLiterals(dst, o.lits)
		} else {
			dst = e.PushMatch(dst, o.lits, o.m, o.d)
		}
	}
	return e.Finalize(dst)
}

func decodeBlocks(t *testing.T, b []byte) ([]byte, int) {
	t.Helper()
	dec := NewDecoder()
	sink := new(lz.FlatSink)
	blocks := 0
	for len(b) > 0 {
		h, err := ParseHeader(b)
		if err != nil {
			t.Fatalf("block %d: %v", blocks, err)
		}
		if err := dec.Load(h, b); err != nil {
			t.Fatalf("block %d: %v", blocks, err)
		}
		if err := dec.Decode(sink); err != nil {
			t.Fatalf("block %d: %v", blocks, err)
		}
		b = b[h.HeaderSize+h.PayloadSize:]
		blocks++
	}
	return sink.Buf, blocks
}

func TestRoundTrip(t *testing.T) {
	for _, v1 := range []bool{false, true} {
		for seed := int64(0); seed < 8; seed++ {
			rnd := rand.New(rand.NewSource(seed))
			ops, want := randomOps(rnd, 1+rnd.Intn(3000), 1+rnd.Intn(700), rnd.Intn(5000))
			e := NewEncoder()
			e.V1 = v1
			got, _ := decodeBlocks(t, encodeOps(e, ops))
			if !bytes.Equal(got, want) {
				t.Fatalf("v1=%v seed %d: output differs", v1, seed)
			}
		}
	}
}

func TestV1Layout(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	ops, _ := randomOps(rnd, 300, 40, 60)
	e := NewEncoder()
	e.V1 = true
	b := encodeOps(e, ops)
	h, err := ParseHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	if h.HeaderSize != 772 {
		t.Fatalf("header size %d", h.HeaderSize)
	}
	var w Weights
	if err := w.LoadV1(b[50:770]); err != nil {
		t.Fatalf("weights at 50: %v", err)
	}
	if b[770] != 0 || b[771] != 0 {
		t.Fatalf("padding %x", b[770:772])
	}
	if got := binary.LittleEndian.Uint32(b[8:]); got != h.LiteralPayload+h.LmdPayload || len(b) != 772+int(got) {
		t.Fatalf("payload %d, block %d bytes", got, len(b))
	}
}

func TestBlockLimits(t *testing.T) {
	rnd := rand.New(rand.NewSource(99))

	// Many short LMDs: the LMD limit splits blocks.
	ops, want := randomOps(rnd, 25000, 2, 6)
	got, blocks := decodeBlocks(t, encodeOps(NewEncoder(), ops))
	if !bytes.Equal(got, want) {
		t.Fatal("lmd limit: output differs")
	}
	if blocks < 3 {
		t.Fatalf("lmd limit: %d blocks", blocks)
	}

	// Long literal runs: the literal limit splits blocks.
	ops, want = randomOps(rnd, 400, 1000, 0)
	got, blocks = decodeBlocks(t, encodeOps(NewEncoder(), ops))
	if !bytes.Equal(got, want) {
		t.Fatal("literal limit: output differs")
	}
	if blocks < 2 {
		t.Fatalf("literal limit: %d blocks", blocks)
	}
}

func TestEmptyFinalize(t *testing.T) {
	e := NewEncoder()
	if b := e.Finalize(e.Init(nil, -1)); len(b) != 0 {
		t.Fatalf("empty encoder wrote %d bytes", len(b))
	}
}

func TestCorruptBlocks(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	ops, want := randomOps(rnd, 500, 50, 100)
	b := encodeOps(NewEncoder(), ops)
	dec := NewDecoder()
	for i := 0; i < 2000; i++ {
		c := append([]byte(nil), b...)
		c[rnd.Intn(len(c))] ^= byte(1 + rnd.Intn(255))
		h, err := ParseHeader(c)
		if err != nil {
			continue
		}
		if err := dec.Load(h, c); err != nil {
			if !format.IsFormat(err) {
				t.Fatalf("unexpected error type: %v", err)
			}
			continue
		}
		sink := new(lz.FlatSink)
		if err := dec.Decode(sink); err != nil {
			if !format.IsFormat(err) {
				t.Fatalf("unexpected error type: %v", err)
			}
			continue
		}
		if len(sink.Buf) != len(want) {
			t.Fatalf("mutation %d: decoded %d bytes, header says %d", i, len(sink.Buf), len(want))
		}
	}
}
