package lzfse

import (
	"bufio"
	"io"
	"slices"

	"github.com/andybalholm/lzfse/internal/format"
	"github.com/andybalholm/lzfse/internal/lz"
	"github.com/andybalholm/lzfse/internal/ring"
	"github.com/apex/log"
)

// readChunk bounds how much of a block is read at once, so that a
// corrupt length cannot trigger a huge allocation.
const readChunk = 1 << 16

// A Reader decompresses an LZFSE stream. Read returns io.EOF after the
// end-of-stream block.
//
// After a format error, the Reader returns ErrBadReaderState until it is
// Reset.
type Reader struct {
	src  *bufio.Reader
	sink *lz.RingSink
	dec  blockDecoder
	blk  []byte
	h    blockHeader

	open    bool // inside a block
	rawLeft uint32
	eos     bool
	err     error
	in      int64 // bytes consumed from src
}

// NewReader returns a Reader decompressing from r.
func NewReader(r io.Reader) *Reader {
	rd := newReader()
	rd.Reset(r)
	return rd
}

func newReader() *Reader {
	return &Reader{
		src:  bufio.NewReaderSize(nil, ring.DecoderInput.BlockSize),
		sink: lz.NewRingSink(ring.New(ring.DecoderOutput)),
	}
}

// Reset discards the Reader's state, including any error, and makes it
// read a new stream from r.
func (r *Reader) Reset(src io.Reader) {
	r.src.Reset(src)
	r.sink.Reset()
	r.blk = r.blk[:0]
	r.open = false
	r.rawLeft = 0
	r.eos = false
	r.err = nil
	r.in = 0
}

func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for r.sink.Pending() == 0 {
		if r.err != nil {
			return 0, r.failure()
		}
		if r.eos {
			return 0, io.EOF
		}
		r.fill()
	}
	return r.sink.Read(p), nil
}

// WriteTo writes the decompressed stream to w.
func (r *Reader) WriteTo(w io.Writer) (int64, error) {
	var n int64
	for {
		if pending := r.sink.Pending(); pending > 0 {
			err := r.sink.Drain(w)
			n += int64(pending - r.sink.Pending())
			if err != nil {
				return n, err
			}
		}
		if r.err != nil {
			return n, r.failure()
		}
		if r.eos {
			return n, nil
		}
		r.fill()
	}
}

// failure returns the stored error. Format errors are reported once; after
// that the Reader refuses to continue.
func (r *Reader) failure() error {
	err := r.err
	if format.IsFormat(err) {
		r.err = format.ErrBadReaderState
	}
	return err
}

// fill decodes until a good amount of output is pending, the stream ends,
// or an error occurs.
func (r *Reader) fill() {
	for !r.eos && r.sink.Room() >= maxStep && r.sink.Pending() < ring.DecoderOutput.BlockSize {
		if err := r.step(); err != nil {
			r.err = err
			return
		}
	}
}

func (r *Reader) step() error {
	if !r.open {
		return r.next()
	}
	var done bool
	switch r.h.magic {
	case format.MagicRaw:
		n := min(int(r.rawLeft), r.sink.Room(), r.src.Size())
		b, err := r.src.Peek(n)
		if len(b) < n {
			if err == io.EOF {
				err = format.ErrPayloadUnderflow
			}
			return err
		}
		if err := r.sink.WriteLiterals(b); err != nil {
			return err
		}
		r.src.Discard(n)
		r.in += int64(n)
		r.rawLeft -= uint32(n)
		done = r.rawLeft == 0
	default:
		var err error
		done, err = r.dec.next(r.sink)
		if err != nil {
			return err
		}
	}
	r.open = !done
	return nil
}

// next reads the header of the next block, and the whole block unless it
// is raw.
func (r *Reader) next() error {
	r.blk = r.blk[:0]
	for need := int64(format.MagicSize); need > 0; {
		if err := r.read(need - int64(len(r.blk))); err != nil {
			return err
		}
		h, more, err := probe(r.blk)
		if err != nil {
			return err
		}
		r.h, need = h, more
	}
	logger.WithFields(log.Fields{
		"block":  format.Name(r.h.magic),
		"offset": r.in - int64(len(r.blk)),
		"raw":    r.h.nRaw,
	}).Debug("decoding block")

	switch r.h.magic {
	case format.MagicEOS:
		r.eos = true
	case format.MagicRaw:
		r.rawLeft = r.h.nRaw
		r.open = r.rawLeft > 0
	default:
		if err := r.dec.load(r.h, r.blk); err != nil {
			return err
		}
		r.open = true
	}
	return nil
}

// read appends n bytes from the source to r.blk.
func (r *Reader) read(n int64) error {
	for n > 0 {
		k := int(min(n, readChunk))
		r.blk = slices.Grow(r.blk, k)
		m, err := io.ReadFull(r.src, r.blk[len(r.blk):len(r.blk)+k])
		r.blk = r.blk[:len(r.blk)+m]
		r.in += int64(m)
		n -= int64(m)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return truncated(len(r.blk))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// A RingDecoder decompresses streams through a fixed-size ring buffer. It
// can be reused for any number of streams.
type RingDecoder struct {
	rd *Reader
}

// NewRingDecoder returns a RingDecoder.
func NewRingDecoder() *RingDecoder {
	return &RingDecoder{rd: newReader()}
}

// Reader returns a Reader decompressing from r. It shares the RingDecoder's
// state, so it is only valid until the next call to Reader or Decode.
func (d *RingDecoder) Reader(r io.Reader) *Reader {
	d.rd.Reset(r)
	return d.rd
}

// Decode decompresses the stream from r to w. It returns the number of
// bytes read and written.
func (d *RingDecoder) Decode(r io.Reader, w io.Writer) (nIn, nOut int64, err error) {
	rd := d.Reader(r)
	nOut, err = rd.WriteTo(w)
	return rd.in, nOut, err
}
