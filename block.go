package lzfse

import (
	"io"

	"github.com/andybalholm/lzfse/internal/format"
	"github.com/andybalholm/lzfse/internal/fse"
	"github.com/andybalholm/lzfse/internal/lz"
	"github.com/andybalholm/lzfse/internal/raw"
	"github.com/andybalholm/lzfse/internal/vn"
)

// maxStep is the most output one decoding step produces.
const maxStep = max(fse.MaxStep, vn.MaxStep)

type blockHeader struct {
	magic uint32
	nRaw  uint32
	fse   fse.Header
	vn    vn.Header

	// size is the length of the header and coded payload. It is zero until
	// the header has been parsed. The data of a raw block follows separately.
	size int64
}

// probe parses the header of the block at the start of b. If b is too short
// to hold the header, or the header and payload, need is the length
// required.
func probe(b []byte) (h blockHeader, need int64, err error) {
	if len(b) < format.MagicSize {
		return h, format.MagicSize, nil
	}
	h.magic = format.Magic(b)
	var fixed int
	switch h.magic {
	case format.MagicEOS:
		fixed = format.MagicSize
	case format.MagicRaw:
		fixed = format.RawHeaderSize
	case format.MagicVN:
		fixed = format.VNHeaderSize
	case format.MagicV1:
		fixed = format.V1HeaderSize
	case format.MagicV2:
		fixed = format.V2HeaderSize
	default:
		return h, 0, &format.BadBlockError{Magic: h.magic}
	}
	if len(b) < fixed {
		return h, int64(fixed), nil
	}

	switch h.magic {
	case format.MagicEOS:
		h.size = format.MagicSize
	case format.MagicRaw:
		rh, err := raw.ParseHeader(b)
		if err != nil {
			return h, 0, err
		}
		h.nRaw = rh.NRaw
		h.size = format.RawHeaderSize
	case format.MagicVN:
		vh, err := vn.ParseHeader(b)
		if err != nil {
			return h, 0, err
		}
		h.vn = vh
		h.nRaw = vh.NRaw
		h.size = format.VNHeaderSize + int64(vh.NPayload)
	default:
		fh, err := fse.ParseHeader(b)
		if err != nil {
			return h, 0, err
		}
		h.fse = fh
		h.nRaw = fh.NRaw
		h.size = int64(fh.HeaderSize) + int64(fh.PayloadSize)
	}
	if int64(len(b)) < h.size {
		return h, h.size, nil
	}
	return h, 0, nil
}

// truncated returns the error for a stream that ends after n bytes of a
// block.
func truncated(n int) error {
	if n < format.MagicSize {
		return io.ErrUnexpectedEOF
	}
	return format.ErrPayloadUnderflow
}

// blockDecoder decodes the coded blocks, bvx1, bvx2 and bvxn.
type blockDecoder struct {
	magic uint32
	fse   *fse.Decoder
	vn    vn.Decoder
}

// load prepares to decode blk, which holds the whole block described by h.
func (d *blockDecoder) load(h blockHeader, blk []byte) error {
	d.magic = h.magic
	if h.magic == format.MagicVN {
		return d.vn.Load(h.vn, blk[format.VNHeaderSize:])
	}
	if d.fse == nil {
		d.fse = fse.NewDecoder()
	}
	return d.fse.Load(h.fse, blk)
}

// next decodes at most maxStep bytes into s. It returns true when the block
// is finished.
func (d *blockDecoder) next(s lz.Sink) (bool, error) {
	if d.magic == format.MagicVN {
		return d.vn.Next(s)
	}
	return d.fse.Next(s)
}
