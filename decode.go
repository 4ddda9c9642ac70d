package lzfse

import (
	"github.com/andybalholm/lzfse/internal/format"
	"github.com/andybalholm/lzfse/internal/lz"
)

// A Decoder decompresses whole buffers. It keeps its tables between calls.
type Decoder struct {
	dec blockDecoder
}

// NewDecoder returns a Decoder.
func NewDecoder() *Decoder {
	return new(Decoder)
}

// DecodeBytes appends the decompressed contents of the stream in src to
// dst, and returns the result. Anything after the end-of-stream block is
// ignored. On error, the returned slice holds the output decoded so far.
func (d *Decoder) DecodeBytes(src, dst []byte) ([]byte, error) {
	sink := &lz.FlatSink{Buf: dst, Base: len(dst)}
	for {
		h, need, err := probe(src)
		if err != nil {
			return sink.Buf, err
		}
		if need > 0 {
			return sink.Buf, truncated(len(src))
		}
		blk := src[:h.size]
		src = src[h.size:]

		switch h.magic {
		case format.MagicEOS:
			return sink.Buf, nil

		case format.MagicRaw:
			if uint64(len(src)) < uint64(h.nRaw) {
				return sink.Buf, format.ErrPayloadUnderflow
			}
			if err := sink.WriteLiterals(src[:h.nRaw]); err != nil {
				return sink.Buf, err
			}
			src = src[h.nRaw:]

		default:
			if err := d.dec.load(h, blk); err != nil {
				return sink.Buf, err
			}
			for {
				done, err := d.dec.next(sink)
				if err != nil {
					return sink.Buf, err
				}
				if done {
					break
				}
			}
		}
	}
}

// DecodeBytes appends the decompressed contents of src to dst, using a new
// Decoder.
func DecodeBytes(src, dst []byte) ([]byte, error) {
	return NewDecoder().DecodeBytes(src, dst)
}
