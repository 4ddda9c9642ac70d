// Package ring implements the fixed-size ring buffers that sit between the
// block codecs and the caller's reader or writer.
//
// The buffer is laid out as
//
//	[head mirror: Limit][main: Size][tail mirror: Limit+32]
//
// The head mirror repeats the last Limit bytes of the main area and the tail
// mirror repeats the first Limit+32 bytes, so any span of up to Limit bytes,
// and any back-reference reaching up to Limit bytes behind a write, is
// contiguous in memory.
package ring

import "fmt"

// A Config describes a ring.
type Config struct {
	Size      int // power of two
	Limit     int // largest single read, write or back-reference copy
	BlockSize int // preferred I/O granularity
}

// Standard configurations.
var (
	EncoderInput  = Config{Size: 0x80000, Limit: 0x140, BlockSize: 0x4000}
	EncoderOutput = Config{Size: 0x20000, Limit: 0x400, BlockSize: 0x2000}
	DecoderInput  = Config{Size: 0x20000, Limit: 0x2D4, BlockSize: 0x2000}
	DecoderOutput = Config{Size: 0x80000, Limit: 0x940, BlockSize: 0x10000}
)

func (c Config) validate() error {
	switch {
	case c.Size < 32 || c.Size > 1<<30 || c.Size&(c.Size-1) != 0:
		return fmt.Errorf("ring: bad size %#x", c.Size)
	case c.Limit <= 0 || c.Limit > c.Size/2:
		return fmt.Errorf("ring: bad limit %#x for size %#x", c.Limit, c.Size)
	case c.BlockSize <= 0 || c.BlockSize > c.Size:
		return fmt.Errorf("ring: bad block size %#x for size %#x", c.BlockSize, c.Size)
	}
	return nil
}

// A Ring is a circular byte buffer addressed by uint32 logical positions.
// Positions wrap around at 1<<32, which is a multiple of Size.
type Ring struct {
	Config
	mask uint32
	buf  []byte
}

// New allocates a ring. It panics if c is not a valid configuration.
func New(c Config) *Ring {
	if err := c.validate(); err != nil {
		panic(err)
	}
	return &Ring{
		Config: c,
		mask:   uint32(c.Size - 1),
		buf:    make([]byte, c.Limit+c.Size+c.Limit+32),
	}
}

func (r *Ring) phys(pos uint32) int {
	return r.Limit + int(pos&r.mask)
}

func (r *Ring) check(n int) {
	if n < 0 || n > r.Limit {
		panic(fmt.Sprintf("ring: span of %d bytes exceeds limit %d", n, r.Limit))
	}
}

// View returns the n bytes starting at pos. n may not exceed Limit. The
// slice aliases the ring and is valid until the next write.
func (r *Ring) View(pos uint32, n int) []byte {
	r.check(n)
	p := r.phys(pos)
	return r.buf[p : p+n : p+n]
}

// Reserve returns a region of n bytes at pos to be filled and then passed to
// Commit. n may not exceed Limit.
func (r *Ring) Reserve(pos uint32, n int) []byte {
	r.check(n)
	p := r.phys(pos)
	return r.buf[p : p+n : p+n]
}

// Commit publishes n bytes written at pos through Reserve or Copy: bytes that
// landed in the tail mirror are folded back into the main area and both
// mirrors are refreshed.
func (r *Ring) Commit(pos uint32, n int) {
	if n == 0 {
		return
	}
	start := int(pos & r.mask)
	end := start + n
	if end > r.Size {
		copy(r.buf[r.Limit:], r.buf[r.Limit+r.Size:r.Limit+end])
	}
	if start < r.Limit+32 || end > r.Size {
		copy(r.buf[r.Limit+r.Size:], r.buf[r.Limit:2*r.Limit+32])
	}
	if end > r.Size-r.Limit {
		copy(r.buf[:r.Limit], r.buf[r.Size:r.Size+r.Limit])
	}
}

// WriteAt copies p into the ring at pos. p may be up to Size bytes long.
func (r *Ring) WriteAt(pos uint32, p []byte) {
	if len(p) > r.Size {
		panic("ring: write larger than ring")
	}
	for len(p) > 0 {
		start := int(pos & r.mask)
		n := copy(r.buf[r.Limit+start:r.Limit+r.Size], p)
		r.commitMain(start, n)
		pos += uint32(n)
		p = p[n:]
	}
}

// commitMain refreshes the mirrors after n bytes were copied directly into
// the main area at offset start, without wrapping.
func (r *Ring) commitMain(start, n int) {
	end := start + n
	if start < r.Limit+32 {
		copy(r.buf[r.Limit+r.Size:], r.buf[r.Limit:2*r.Limit+32])
	}
	if end > r.Size-r.Limit {
		copy(r.buf[:r.Limit], r.buf[r.Size:r.Size+r.Limit])
	}
}

// Copy appends m bytes at pos by copying from d bytes back, as an LZ77 match
// does; the source may overlap the destination. m may not exceed Limit, and d
// must be between 1 and Size-m.
func (r *Ring) Copy(pos uint32, d, m int) {
	r.check(m)
	if d <= 0 || d > r.Size-m {
		panic(fmt.Sprintf("ring: bad copy distance %d", d))
	}
	p := r.phys(pos)
	if d < m {
		// Overlapping: the source is at most Limit bytes back, which the head
		// mirror keeps contiguous.
		src := p - d
		for n := m; n > 0; {
			k := copy(r.buf[p:p+min(d, n)], r.buf[src:])
			p += k
			src += k
			n -= k
		}
	} else {
		copy(r.buf[p:p+m], r.View(pos-uint32(d), m))
	}
	r.Commit(pos, m)
}

// Span returns up to n bytes starting at pos without crossing the end of the
// main area. It is used to drain the ring in large pieces.
func (r *Ring) Span(pos uint32, n int) []byte {
	start := int(pos & r.mask)
	if n > r.Size-start {
		n = r.Size - start
	}
	return r.buf[r.Limit+start : r.Limit+start+n]
}

// ReadAt copies len(p) bytes starting at pos into p.
func (r *Ring) ReadAt(p []byte, pos uint32) {
	for len(p) > 0 {
		n := copy(p, r.Span(pos, len(p)))
		p = p[n:]
		pos += uint32(n)
	}
}
