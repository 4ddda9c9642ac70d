package lz

import (
	"io"
	"slices"

	"github.com/andybalholm/lzfse/internal/format"
	"github.com/andybalholm/lzfse/internal/ring"
)

// A Sink receives decoded output.
type Sink interface {
	// WriteLiterals appends b.
	WriteLiterals(b []byte) error

	// WriteMatch appends m bytes copied from d bytes back. It returns
	// format.ErrBadDValue if d is 0 or reaches before the start of the output.
	WriteMatch(m, d uint32) error

	// Len returns the number of bytes written so far.
	Len() uint64
}

// FlatSink appends decoded output to a byte slice. Back-references may not
// reach before Base.
type FlatSink struct {
	Buf  []byte
	Base int
}

func (s *FlatSink) Len() uint64 {
	return uint64(len(s.Buf) - s.Base)
}

func (s *FlatSink) grow(n uint32) error {
	if uint64(len(s.Buf)-s.Base)+uint64(n) > format.MaxBufferLen {
		return format.ErrBufferOverflow
	}
	s.Buf = slices.Grow(s.Buf, int(n))
	return nil
}

func (s *FlatSink) WriteLiterals(b []byte) error {
	if err := s.grow(uint32(len(b))); err != nil {
		return err
	}
	s.Buf = append(s.Buf, b...)
	return nil
}

func (s *FlatSink) WriteMatch(m, d uint32) error {
	if d == 0 || uint64(d) > s.Len() {
		return format.ErrBadDValue
	}
	if err := s.grow(m); err != nil {
		return err
	}
	pos := len(s.Buf)
	s.Buf = s.Buf[:pos+int(m)]
	src := pos - int(d)
	for n := int(m); n > 0; {
		k := copy(s.Buf[pos:pos+min(int(d), n)], s.Buf[src:])
		pos += k
		src += k
		n -= k
	}
	return nil
}

// RingSink writes decoded output into a ring buffer, from which it is
// drained to the consumer.
type RingSink struct {
	ring  *ring.Ring
	pos   uint32 // ring position of the next byte
	n     uint64 // bytes written
	taken uint64 // bytes drained
}

// NewRingSink returns a sink writing into r.
func NewRingSink(r *ring.Ring) *RingSink {
	return &RingSink{ring: r}
}

// Reset discards all state.
func (s *RingSink) Reset() {
	s.pos = 0
	s.n = 0
	s.taken = 0
}

func (s *RingSink) Len() uint64 {
	return s.n
}

// Pending returns the number of bytes written but not yet drained.
func (s *RingSink) Pending() int {
	return int(s.n - s.taken)
}

// Room returns how many more bytes may be written before the ring would
// overwrite data that has not been drained.
func (s *RingSink) Room() int {
	return s.ring.Size - s.Pending()
}

func (s *RingSink) WriteLiterals(b []byte) error {
	for len(b) > 0 {
		n := min(len(b), s.ring.Limit)
		copy(s.ring.Reserve(s.pos, n), b[:n])
		s.ring.Commit(s.pos, n)
		s.advance(n)
		b = b[n:]
	}
	return nil
}

func (s *RingSink) WriteMatch(m, d uint32) error {
	if d == 0 || uint64(d) > s.n || int(d) > s.ring.Size-s.ring.Limit {
		return format.ErrBadDValue
	}
	for m > 0 {
		k := min(int(m), s.ring.Limit)
		s.ring.Copy(s.pos, int(d), k)
		s.advance(k)
		m -= uint32(k)
	}
	return nil
}

func (s *RingSink) advance(n int) {
	s.pos += uint32(n)
	s.n += uint64(n)
}

// Read copies undrained output into p.
func (s *RingSink) Read(p []byte) int {
	n := min(len(p), s.Pending())
	s.ring.ReadAt(p[:n], s.pos-uint32(s.Pending()))
	s.taken += uint64(n)
	return n
}

// Drain writes all undrained output to w.
func (s *RingSink) Drain(w io.Writer) error {
	for s.Pending() > 0 {
		b := s.ring.Span(s.pos-uint32(s.Pending()), s.Pending())
		n, err := w.Write(b)
		s.taken += uint64(n)
		if err != nil {
			return err
		}
		if n < len(b) {
			return io.ErrShortWrite
		}
	}
	return nil
}
