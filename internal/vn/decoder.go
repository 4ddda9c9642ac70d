package vn

import (
	"encoding/binary"

	"github.com/andybalholm/lzfse/internal/format"
	"github.com/andybalholm/lzfse/internal/lz"
)

// Header is a decoded VN block header.
type Header struct {
	NRaw     uint32
	NPayload uint32
}

// ParseHeader decodes the VN block header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < format.VNHeaderSize {
		return Header{}, format.ErrPayloadUnderflow
	}
	if m := format.Magic(b); m != format.MagicVN {
		return Header{}, &format.BadBlockError{Magic: m}
	}
	h := Header{
		NRaw:     binary.LittleEndian.Uint32(b[4:]),
		NPayload: binary.LittleEndian.Uint32(b[8:]),
	}
	if h.NPayload < 8 {
		return Header{}, &format.VnError{Kind: format.BadVnPayloadCount, Value: h.NPayload}
	}
	return h, nil
}

// Decoder decodes a VN block one operation at a time.
type Decoder struct {
	h       Header
	payload []byte
	pos     int
	prevD   uint32
	nRaw    uint32
}

// Load prepares to decode payload, the bytes following the header h.
func (dec *Decoder) Load(h Header, payload []byte) error {
	if uint64(len(payload)) < uint64(h.NPayload) {
		return format.ErrPayloadUnderflow
	}
	dec.h = h
	dec.payload = payload[:h.NPayload]
	dec.pos = 0
	dec.prevD = 0
	dec.nRaw = 0
	return nil
}

// Next decodes one operation into s. It returns true after the
// end-of-stream operation.
func (dec *Decoder) Next(s lz.Sink) (bool, error) {
	src := dec.payload[dec.pos:]
	if len(src) < 8 {
		return false, format.ErrPayloadUnderflow
	}
	op := binary.LittleEndian.Uint32(src)
	var (
		opLen   int
		l, m, d uint32
		newD    bool
	)
	switch opTable[op&0xFF] {
	case opSmlL:
		opLen, l = 1, op&0xF
	case opLrgL:
		opLen, l = 2, op>>8&0xFF+0x10
	case opSmlM:
		opLen, m = 1, op&0xF
	case opLrgM:
		opLen, m = 2, op>>8&0xFF+0x10
	case opPreD:
		opLen, l, m = 1, op>>6&3, op>>3&7+3
	case opSmlD:
		opLen, l, m, d, newD = 2, op>>6&3, op>>3&7+3, op&7<<8|op>>8&0xFF, true
	case opMedD:
		opLen, l, m, d, newD = 3, op>>3&3, (op&7<<2|op>>8&3)+3, op>>10&0x3FFF, true
	case opLrgD:
		opLen, l, m, d, newD = 3, op>>6&3, op>>3&7+3, op>>8&0xFFFF, true
	case opNop:
		if len(src) < 9 {
			return false, format.ErrPayloadUnderflow
		}
		dec.pos++
		return false, nil
	case opEOS:
		if err := dec.eos(src); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, format.Vn(format.BadOpcode)
	}

	if len(src) < opLen+int(l)+8 {
		return false, format.ErrPayloadUnderflow
	}
	if uint64(dec.nRaw)+uint64(l)+uint64(m) > uint64(dec.h.NRaw) {
		return false, format.Vn(format.BadVnPayload)
	}
	if l > 0 {
		if err := s.WriteLiterals(src[opLen : opLen+int(l)]); err != nil {
			return false, err
		}
	}
	if newD {
		dec.prevD = d
	}
	if m > 0 {
		if dec.prevD == 0 {
			return false, format.ErrBadDValue
		}
		if err := s.WriteMatch(m, dec.prevD); err != nil {
			return false, err
		}
	}
	dec.nRaw += l + m
	dec.pos += opLen + int(l)
	return false, nil
}

func (dec *Decoder) eos(src []byte) error {
	if binary.LittleEndian.Uint64(src) != eosByte {
		return format.Vn(format.BadVnPayload)
	}
	if len(src) > 8 {
		return format.ErrPayloadOverflow
	}
	if dec.nRaw != dec.h.NRaw {
		return format.Vn(format.BadVnPayload)
	}
	return nil
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
