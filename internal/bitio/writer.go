// Package bitio implements the bit streams used by FSE blocks.
//
// A stream is written forward, least significant bit first, and read
// backward from its last byte, so the last bits written are the first bits
// read.
package bitio

import "encoding/binary"

// A Writer packs bits into a 64-bit accumulator and appends whole bytes to a
// buffer. No more than 63 bits may be pending between calls to Flush.
type Writer struct {
	buf   []byte
	accum uint64
	bits  uint
}

// Reset prepares w to append to buf.
func (w *Writer) Reset(buf []byte) {
	w.buf = buf
	w.accum = 0
	w.bits = 0
}

// Push adds the low n bits of b to the stream. b must not have any bits set
// above the low n.
func (w *Writer) Push(b uint64, n uint) {
	w.accum |= b << w.bits
	w.bits += n
}

// Flush moves the whole bytes in the accumulator to the buffer.
func (w *Writer) Flush() {
	n := w.bits &^ 7
	if n == 0 {
		return
	}
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], w.accum)
	w.buf = append(w.buf, tmp[:n>>3]...)
	w.accum >>= n
	w.bits -= n
}

// Finish flushes everything, padding the last byte with zero bits. It
// returns the buffer and the number of padding bits (0 to 7), which a reader
// needs to find the start of the stream.
func (w *Writer) Finish() ([]byte, int) {
	pad := (8 - w.bits&7) & 7
	w.bits += pad
	w.Flush()
	buf := w.buf
	w.buf = nil
	return buf, int(pad)
}
