package fse

import (
	"github.com/andybalholm/lzfse/internal/bitio"
	"github.com/andybalholm/lzfse/internal/format"
	"github.com/andybalholm/lzfse/internal/lz"
)

// MaxStep is the most output a single call to Decoder.Next produces.
const MaxStep = MaxL + MaxM

// ParseHeader decodes the fixed header of a bvx1 or bvx2 block at the start
// of b. For bvx2 only the first format.V2HeaderSize bytes are needed; the
// full block is Header.HeaderSize+Header.PayloadSize bytes.
func ParseHeader(b []byte) (Header, error) {
	switch m := format.Magic(b); m {
	case format.MagicV1:
		return ParseV1(b)
	case format.MagicV2:
		return ParseV2(b)
	default:
		return Header{}, &format.BadBlockError{Magic: m}
	}
}

// Decoder decodes one FSE block at a time. The literals are decoded when the
// block is loaded; the LMDs are decoded one per call to Next.
type Decoder struct {
	h       Header
	weights Weights
	l       [lStates]decValue
	m       [mStates]decValue
	d       [dStates]decValue
	u       [uStates]decSymbol

	literals []byte
	lit      int

	r          bitio.Reader
	ls, ms, ds int32
	n          uint32 // LMDs decoded
	prevD      uint32
	nRaw       uint64
}

// NewDecoder returns a Decoder.
func NewDecoder() *Decoder {
	return &Decoder{literals: make([]byte, LiteralsPerBlock)}
}

// Load prepares to decode block, which holds the whole block described by
// h: header, weights and payload.
func (dec *Decoder) Load(h Header, block []byte) error {
	if uint64(len(block)) < uint64(h.HeaderSize)+uint64(h.PayloadSize) {
		return format.ErrPayloadUnderflow
	}
	dec.h = h
	dec.lit = 0
	dec.n = 0
	dec.prevD = 0
	dec.nRaw = 0

	var err error
	if format.Magic(block) == format.MagicV1 {
		err = dec.weights.LoadV1(block[format.V1WeightsAt : format.V1WeightsAt+V1WeightsSize])
	} else {
		err = dec.weights.LoadV2(block[h.HeaderSize-h.WeightsSize : h.HeaderSize])
	}
	if err != nil {
		return err
	}
	buildValueTable(dec.l[:], dec.weights.l(), lExtraBits[:], lBaseValue[:])
	buildValueTable(dec.m[:], dec.weights.m(), mExtraBits[:], mBaseValue[:])
	buildValueTable(dec.d[:], dec.weights.d(), dExtraBits[:], dBaseValue[:])
	buildDecTable(dec.u[:], dec.weights.u())

	litEnd := h.HeaderSize + h.LiteralPayload
	if err := dec.loadLiterals(block[h.HeaderSize-bitio.Slack : litEnd]); err != nil {
		return err
	}
	if err := dec.r.Init(block[litEnd:litEnd+h.LmdPayload], int(h.LmdPad)); err != nil {
		return err
	}
	dec.ls = int32(h.LmdState[0])
	dec.ms = int32(h.LmdState[1])
	dec.ds = int32(h.LmdState[2])
	return nil
}

func (dec *Decoder) loadLiterals(src []byte) error {
	var r bitio.Reader
	if err := r.Init(src, int(dec.h.LiteralPad)); err != nil {
		return err
	}
	var s [4]int32
	for i, x := range dec.h.LiteralState {
		s[i] = int32(x)
	}
	lits := dec.literals[:dec.h.NLiterals]
	for i := 0; i < len(lits); i += 4 {
		r.Flush()
		lits[i] = dec.u[s[0]].decode(&r, &s[0])
		lits[i+1] = dec.u[s[1]].decode(&r, &s[1])
		lits[i+2] = dec.u[s[2]].decode(&r, &s[2])
		lits[i+3] = dec.u[s[3]].decode(&r, &s[3])
	}
	if err := r.Finalize(); err != nil {
		return err
	}
	if s != [4]int32{} {
		return format.Fse(format.BadFseReaderState)
	}
	return nil
}

// Next decodes one LMD into s. It returns true once the block is finished.
func (dec *Decoder) Next(s lz.Sink) (bool, error) {
	if dec.n == dec.h.NLmds {
		if err := dec.r.Finalize(); err != nil {
			return false, err
		}
		if dec.ls != 0 || dec.ms != 0 || dec.ds != 0 {
			return false, format.Fse(format.BadFseReaderState)
		}
		if dec.nRaw != uint64(dec.h.NRaw) {
			return false, format.Fse(format.BadRawByteCount)
		}
		return true, nil
	}

	dec.r.Flush()
	l := dec.l[dec.ls].decode(&dec.r, &dec.ls)
	m := dec.m[dec.ms].decode(&dec.r, &dec.ms)
	d := dec.d[dec.ds].decode(&dec.r, &dec.ds)
	dec.n++

	if dec.lit+int(l) > int(dec.h.NLiterals) {
		return false, format.Fse(format.BadLmdPayload)
	}
	if d != 0 {
		dec.prevD = d
	}
	dec.nRaw += uint64(l) + uint64(m)
	if dec.nRaw > uint64(dec.h.NRaw) {
		return false, format.Fse(format.BadRawByteCount)
	}
	if l != 0 {
		if err := s.WriteLiterals(dec.literals[dec.lit : dec.lit+int(l)]); err != nil {
			return false, err
		}
		dec.lit += int(l)
	}
	if m != 0 {
		if dec.prevD == 0 {
			return false, format.ErrBadDValue
		}
		if err := s.WriteMatch(m, dec.prevD); err != nil {
			return false, err
		}
	}
	return false, nil
}

// Decode decodes the whole block into s.
func (dec *Decoder) Decode(s lz.Sink) error {
	for {
		done, err := dec.Next(s)
		if done || err != nil {
			return err
		}
	}
}
