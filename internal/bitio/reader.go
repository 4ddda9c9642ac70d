package bitio

import (
	"encoding/binary"

	"github.com/andybalholm/lzfse/internal/format"
)

// Slack is the number of bytes in front of a stream that a Reader may load
// into its accumulator but must never consume. For literal streams these are
// the last bytes of the block header; LMD streams begin with Slack zero bytes.
const Slack = 8

// A Reader reads a bit stream backward, from the end of src toward its start.
type Reader struct {
	src   []byte
	pos   int // bytes before pos have not been loaded
	accum uint64
	bits  int // number of valid bits in accum
	short bool
}

// Init prepares r to read src, whose final byte holds pad bits of padding.
// The first Slack bytes of src are padding in front of the stream.
func (r *Reader) Init(src []byte, pad int) error {
	*r = Reader{src: src}
	if pad < 0 || pad > 7 {
		return format.ErrBadBitStream
	}
	if pad == 0 {
		if len(src) < 7 {
			return format.ErrPayloadUnderflow
		}
		r.pos = len(src) - 7
		r.accum = uint64(binary.LittleEndian.Uint32(src[r.pos:])) |
			uint64(binary.LittleEndian.Uint16(src[r.pos+4:]))<<32 |
			uint64(src[r.pos+6])<<48
		r.bits = 56
	} else {
		if len(src) < 8 {
			return format.ErrPayloadUnderflow
		}
		r.pos = len(src) - 8
		r.accum = binary.LittleEndian.Uint64(src[r.pos:])
		r.bits = 64 - pad
	}
	if r.accum>>uint(r.bits) != 0 {
		return format.ErrBadBitStream
	}
	return nil
}

// Flush refills the accumulator so that it holds between 56 and 63 bits.
func (r *Reader) Flush() {
	n := (63 - r.bits) >> 3
	if n == 0 {
		return
	}
	r.pos -= n
	var u uint64
	if r.pos >= 0 {
		u = binary.LittleEndian.Uint64(r.src[r.pos:]) & (1<<uint(n<<3) - 1)
	} else {
		// Ran off the front of the buffer: feed zeros and fail in Finalize.
		r.short = true
		for i := n - 1; i >= 0; i-- {
			u <<= 8
			if j := r.pos + i; j >= 0 {
				u |= uint64(r.src[j])
			}
		}
	}
	r.accum = r.accum<<uint(n<<3) | u
	r.bits += n << 3
}

// Pull removes the top n bits from the accumulator and returns them.
func (r *Reader) Pull(n int) uint32 {
	r.bits -= n
	v := r.accum >> uint(r.bits)
	r.accum &= 1<<uint(r.bits) - 1
	return uint32(v)
}

// Finalize checks that the stream did not read into the slack bytes in
// front of it.
func (r *Reader) Finalize() error {
	r.Flush()
	if r.short || r.pos+r.bits>>3 < Slack {
		return format.ErrPayloadUnderflow
	}
	return nil
}
