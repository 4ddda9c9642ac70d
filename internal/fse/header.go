package fse

import (
	"encoding/binary"

	"github.com/andybalholm/lzfse/internal/format"
)

// Header describes an FSE block. The same fields are stored in either the
// bvx1 or the packed bvx2 layout.
type Header struct {
	NRaw uint32

	NLiterals      uint32
	LiteralPayload uint32
	LiteralPad     uint32 // padding bits in the last byte of the literal stream
	LiteralState   [4]uint16
	NLmds          uint32
	LmdPayload     uint32
	LmdPad         uint32
	LmdState       [3]uint16
	WeightsSize    uint32 // bytes of encoded weights following the fixed header
	HeaderSize     uint32 // fixed header plus weights
	PayloadSize    uint32 // literal plus LMD payload
}

func literalPayloadLimit(n uint32) uint32 {
	return 1024 + (n*maxUBits+7)/8
}

func lmdPayloadLimit(n uint32) uint32 {
	return 1024 + 8 + (n*maxLmdBits+7)/8
}

func (h *Header) validate() error {
	switch {
	case h.NLiterals%4 != 0 || h.NLiterals > LiteralsPerBlock:
		return &format.FseError{Kind: format.BadLiteralCount, Value: h.NLiterals}
	case h.LiteralPayload > literalPayloadLimit(h.NLiterals):
		return format.Fse(format.BadLiteralPayload)
	case h.LiteralPad > 7:
		return format.Fse(format.BadLiteralBits)
	}
	for _, s := range h.LiteralState {
		if s >= uStates {
			return format.Fse(format.BadLiteralState)
		}
	}
	switch {
	case h.NLmds > LmdsPerBlock || h.LmdPayload < 8 || h.LmdPayload > lmdPayloadLimit(h.NLmds):
		return &format.FseError{Kind: format.BadLmdCount, Value: h.NLmds}
	case h.LmdPad > 7:
		return format.Fse(format.BadLmdBits)
	case h.LmdState[0] >= lStates || h.LmdState[1] >= mStates || h.LmdState[2] >= dStates:
		return format.Fse(format.BadLmdState)
	case h.NRaw > h.NLiterals+h.NLmds*MaxM:
		return format.Fse(format.BadRawByteCount)
	}
	return nil
}

// ParseV1 decodes a bvx1 header. b must hold at least format.V1HeaderSize
// bytes.
func ParseV1(b []byte) (Header, error) {
	var h Header
	if len(b) < format.V1HeaderSize {
		return h, format.ErrPayloadUnderflow
	}
	le := binary.LittleEndian
	h.NRaw = le.Uint32(b[4:])
	nPayload := le.Uint32(b[8:])
	h.NLiterals = le.Uint32(b[12:])
	h.NLmds = le.Uint32(b[16:])
	h.LiteralPayload = le.Uint32(b[20:])
	h.LmdPayload = le.Uint32(b[24:])
	h.LiteralPad = -le.Uint32(b[28:])
	for i := range h.LiteralState {
		h.LiteralState[i] = le.Uint16(b[32+2*i:])
	}
	h.LmdPad = -le.Uint32(b[40:])
	for i := range h.LmdState {
		h.LmdState[i] = le.Uint16(b[44+2*i:])
	}
	if uint64(nPayload) < uint64(h.LiteralPayload)+uint64(h.LmdPayload) {
		return Header{}, format.Fse(format.BadPayloadCount)
	}
	if err := h.validate(); err != nil {
		return Header{}, err
	}
	h.WeightsSize = V1WeightsSize
	h.HeaderSize = format.V1HeaderSize
	h.PayloadSize = nPayload
	return h, nil
}

// AppendV1 appends h in the bvx1 layout, without the weights or the trailing
// padding.
func (h *Header) AppendV1(dst []byte) []byte {
	le := binary.LittleEndian
	dst = le.AppendUint32(dst, format.MagicV1)
	dst = le.AppendUint32(dst, h.NRaw)
	dst = le.AppendUint32(dst, h.LiteralPayload+h.LmdPayload)
	dst = le.AppendUint32(dst, h.NLiterals)
	dst = le.AppendUint32(dst, h.NLmds)
	dst = le.AppendUint32(dst, h.LiteralPayload)
	dst = le.AppendUint32(dst, h.LmdPayload)
	dst = le.AppendUint32(dst, -h.LiteralPad)
	for _, s := range h.LiteralState {
		dst = le.AppendUint16(dst, s)
	}
	dst = le.AppendUint32(dst, -h.LmdPad)
	for _, s := range h.LmdState {
		dst = le.AppendUint16(dst, s)
	}
	return dst
}

func getBits(p uint64, off, n uint) uint32 {
	return uint32(p >> off & (1<<n - 1))
}

// ParseV2 decodes the fixed part of a bvx2 header. b must hold at least
// format.V2HeaderSize bytes.
func ParseV2(b []byte) (Header, error) {
	var h Header
	if len(b) < format.V2HeaderSize {
		return h, format.ErrPayloadUnderflow
	}
	le := binary.LittleEndian
	h.NRaw = le.Uint32(b[4:])

	p := le.Uint64(b[8:])
	h.NLiterals = getBits(p, 0, 20)
	h.LiteralPayload = getBits(p, 20, 20)
	h.NLmds = getBits(p, 40, 20)
	h.LiteralPad = 7 - getBits(p, 60, 3)

	p = le.Uint64(b[16:])
	for i := range h.LiteralState {
		h.LiteralState[i] = uint16(getBits(p, uint(10*i), 10))
	}
	h.LmdPayload = getBits(p, 40, 20)
	h.LmdPad = 7 - getBits(p, 60, 3)

	p = le.Uint64(b[24:])
	h.HeaderSize = getBits(p, 0, 32)
	h.LmdState[0] = uint16(getBits(p, 32, 10))
	h.LmdState[1] = uint16(getBits(p, 42, 10))
	h.LmdState[2] = uint16(getBits(p, 52, 10))

	h.WeightsSize = h.HeaderSize - format.V2HeaderSize
	if h.HeaderSize < format.V2HeaderSize || h.WeightsSize > format.V2WeightsMax {
		return Header{}, format.Fse(format.BadWeightPayload)
	}
	if err := h.validate(); err != nil {
		return Header{}, err
	}
	h.PayloadSize = h.LiteralPayload + h.LmdPayload
	return h, nil
}

// AppendV2 appends the fixed part of h in the bvx2 layout. h.WeightsSize
// must already be set.
func (h *Header) AppendV2(dst []byte) []byte {
	le := binary.LittleEndian
	dst = le.AppendUint32(dst, format.MagicV2)
	dst = le.AppendUint32(dst, h.NRaw)

	p := uint64(h.NLiterals) |
		uint64(h.LiteralPayload)<<20 |
		uint64(h.NLmds)<<40 |
		uint64(7-h.LiteralPad)<<60
	dst = le.AppendUint64(dst, p)

	p = uint64(h.LmdPayload)<<40 | uint64(7-h.LmdPad)<<60
	for i, s := range h.LiteralState {
		p |= uint64(s) << uint(10*i)
	}
	dst = le.AppendUint64(dst, p)

	p = uint64(format.V2HeaderSize+h.WeightsSize) |
		uint64(h.LmdState[0])<<32 |
		uint64(h.LmdState[1])<<42 |
		uint64(h.LmdState[2])<<52
	return le.AppendUint64(dst, p)
}
