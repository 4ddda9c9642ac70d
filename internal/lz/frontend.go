package lz

import (
	"encoding/binary"
	"math/bits"

	"github.com/andybalholm/lzfse/internal/format"
	"github.com/andybalholm/lzfse/internal/raw"
	"github.com/andybalholm/lzfse/internal/ring"
)

const (
	// MaxMatchLen is the longest match the frontend reports in one piece.
	MaxMatchLen = 0x8000

	// A position is only searched once this many bytes follow it, so that a
	// match found there does not depend on how the input was split into
	// writes.
	lookahead = MaxMatchLen + 8

	// Literal runs this long are handed to the backend without waiting for
	// a match.
	maxLiteralRun = 0x8000

	// Inputs longer than this are streamed through the FSE backend. Shorter
	// inputs are buffered whole and stored as whichever block type suits
	// their length.
	commitLen = 0x40000
)

type match struct {
	pos uint32 // where the match starts
	src uint32 // where it copies from
	len uint32
}

func (m match) end() uint32 { return m.pos + m.len }

// selectMatch applies lazy matching: given the pending match p and the match
// found at the current position, it decides which match, if any, to emit now.
func (p *match) selectMatch(in match) (match, bool) {
	switch {
	case in.len == 0:
		return match{}, false
	case in.len >= format.GoodMatchLen:
		p.len = 0
		return in, true
	case p.len == 0:
		*p = in
		return match{}, false
	case int32(in.pos-p.end()) >= 0:
		sel := *p
		*p = in
		return sel, true
	case in.len > p.len:
		p.len = 0
		return in, true
	default:
		sel := *p
		p.len = 0
		return sel, true
	}
}

// A Frontend finds matches in a stream of input bytes held in a ring buffer
// and feeds them to a Backend.
type Frontend struct {
	ring  *ring.Ring
	table *HistoryTable
	fse   Backend
	vn    Backend

	backend Backend // nil until the block type is decided
	unit    MatchUnit
	limits  Limits

	pending match
	literal uint32 // first byte not yet given to the backend
	idx     uint32 // next position to search
	tail    uint32 // end of the input
	total   uint64
	clamp   uint32

	scratch []byte
}

// NewFrontend returns a Frontend that reads input through r and encodes with
// fse for large inputs and vn for small ones.
func NewFrontend(r *ring.Ring, fse, vn Backend) *Frontend {
	f := &Frontend{
		ring:  r,
		table: new(HistoryTable),
		fse:   fse,
		vn:    vn,
	}
	f.Reset()
	return f
}

// Reset prepares f for a new stream.
func (f *Frontend) Reset() {
	f.table.Reset(0)
	f.backend = nil
	f.pending = match{}
	f.literal = 0
	f.idx = 0
	f.tail = 0
	f.total = 0
	f.clamp = format.ClampInterval
}

// room returns how many bytes can be added to the ring without overwriting
// data that may still be referenced.
func (f *Frontend) room() int {
	keep := f.total
	if f.backend != nil {
		keep = min(keep, uint64(f.tail-f.literal)+uint64(f.limits.MaxD))
	}
	return f.ring.Size - int(keep)
}

// Write adds p to the input, appending any blocks that become complete to
// dst.
func (f *Frontend) Write(dst, p []byte) []byte {
	for len(p) > 0 {
		n := min(len(p), f.room())
		if f.backend == nil {
			n = min(n, commitLen+1-int(f.total))
		}
		f.ring.WriteAt(f.tail, p[:n])
		f.tail += uint32(n)
		f.total += uint64(n)
		p = p[n:]

		if f.backend == nil {
			if f.total <= commitLen {
				continue
			}
			dst = f.commit(dst, f.fse, -1)
		}
		dst = f.search(dst, false)
	}
	return dst
}

// Finalize encodes the rest of the input and appends the end-of-stream
// block.
func (f *Frontend) Finalize(dst []byte) []byte {
	if f.backend == nil {
		dst = f.selectBlock(dst)
	} else {
		dst = f.search(dst, true)
		dst = f.flush(dst)
	}
	return binary.LittleEndian.AppendUint32(dst, format.MagicEOS)
}

func (f *Frontend) commit(dst []byte, b Backend, total int) []byte {
	f.backend = b
	f.unit = b.Unit()
	f.limits = b.Limits()
	return b.Init(dst, total)
}

// selectBlock encodes a short input that has been buffered whole, storing
// it raw if the chosen backend does not make it smaller.
func (f *Frontend) selectBlock(dst []byte) []byte {
	n := int(f.total)
	if n == 0 {
		return dst
	}
	if n > format.RawCutoff {
		b := f.fse
		if n <= format.VNCutoff {
			b = f.vn
		}
		mark := len(dst)
		dst = f.commit(dst, b, n)
		dst = f.search(dst, true)
		dst = f.flush(dst)
		if len(dst)-mark < n+format.RawHeaderSize {
			return dst
		}
		if debug {
			debugf("block of %d bytes stored raw", n)
		}
		dst = dst[:mark]
	}
	return raw.Append(dst, f.bytes(f.tail-uint32(n), n))
}

// flush emits the pending match and the trailing literals and finalizes the
// backend.
func (f *Frontend) flush(dst []byte) []byte {
	if f.pending.len != 0 {
		dst = f.push(dst, f.pending)
		f.pending.len = 0
	}
	if n := f.tail - f.literal; n != 0 {
		dst = f.pushLiterals(dst, n)
	}
	return f.backend.Finalize(dst)
}

// search runs the match finder over every position that has enough input
// after it. With final set, that is every position with at least 4 bytes
// left.
func (f *Frontend) search(dst []byte, final bool) []byte {
	need := uint32(lookahead)
	if final {
		need = 4
	}
	for f.tail-f.idx >= need {
		if int32(f.idx-f.clamp) >= 0 {
			f.table.Clamp(f.idx)
			f.clamp = f.idx + format.ClampInterval
		}
		if f.pending.len != 0 && int32(f.idx-f.pending.end()) >= 0 {
			dst = f.push(dst, f.pending)
			f.pending.len = 0
		}
		if f.pending.len == 0 && f.idx-f.literal >= maxLiteralRun {
			dst = f.pushLiterals(dst, f.idx-f.literal)
		}

		u := f.word(f.idx)
		candidates := f.table.Push(f.unit, u, f.idx)
		in := f.find(candidates, u, final)
		sel, ok := f.pending.selectMatch(in)
		f.idx++
		if !ok {
			continue
		}
		dst = f.push(dst, sel)
		for ; int32(f.literal-f.idx) > 0 && f.tail-f.idx >= 4; f.idx++ {
			f.table.Push(f.unit, f.word(f.idx), f.idx)
		}
	}
	return dst
}

// find looks for the longest match at f.idx among the candidates from its
// hash bucket.
func (f *Frontend) find(candidates bucket, u uint32, final bool) match {
	pos := f.idx
	limit := MaxMatchLen
	if final {
		limit = min(limit, int(f.tail-pos))
	}
	var best match
	for _, c := range candidates {
		d := pos - c.pos
		if d == 0 || d > f.limits.MaxD {
			break
		}
		n := f.unit.MatchUs(u, c.u)
		if n == 4 {
			n = f.extend(pos, c.pos, 4, limit)
		}
		if uint32(n) > best.len {
			best = match{pos: pos, src: c.pos, len: uint32(n)}
		}
	}
	if best.len == 0 {
		return best
	}

	// Extend backward into the literals, but not before the start of the
	// stream.
	srcOffset := f.total - uint64(f.tail-best.src)
	back := f.extendBack(best.pos, best.src, int(min(uint64(best.pos-f.literal), srcOffset)))
	best.pos -= uint32(back)
	best.src -= uint32(back)
	best.len += uint32(back)
	return best
}

// extend returns the length of the match between pos and src, given that
// the first n bytes are known to match, up to limit.
func (f *Frontend) extend(pos, src uint32, n, limit int) int {
	for n < limit {
		k := min(limit-n, f.ring.Limit)
		a := f.ring.View(pos+uint32(n), k)
		b := f.ring.View(src+uint32(n), k)
		i := 0
		for ; i+8 <= k; i += 8 {
			if x := binary.LittleEndian.Uint64(a[i:]) ^ binary.LittleEndian.Uint64(b[i:]); x != 0 {
				return n + i + bits.TrailingZeros64(x)>>3
			}
		}
		for ; i < k; i++ {
			if a[i] != b[i] {
				return n + i
			}
		}
		n += k
	}
	return limit
}

// extendBack returns how many bytes before pos and src also match, up to
// limit.
func (f *Frontend) extendBack(pos, src uint32, limit int) int {
	n := 0
	for n < limit {
		k := min(limit-n, f.ring.Limit)
		a := f.ring.View(pos-uint32(n+k), k)
		b := f.ring.View(src-uint32(n+k), k)
		for i := k - 1; i >= 0; i-- {
			if a[i] != b[i] {
				return n + k - 1 - i
			}
		}
		n += k
	}
	return limit
}

func (f *Frontend) word(pos uint32) uint32 {
	return binary.LittleEndian.Uint32(f.ring.View(pos, 4))
}

// bytes copies n bytes starting at pos out of the ring.
func (f *Frontend) bytes(pos uint32, n int) []byte {
	if cap(f.scratch) < n {
		f.scratch = make([]byte, n, max(n, 2*cap(f.scratch)))
	}
	f.scratch = f.scratch[:n]
	f.ring.ReadAt(f.scratch, pos)
	return f.scratch
}

func (f *Frontend) push(dst []byte, m match) []byte {
	lits := f.bytes(f.literal, int(m.pos-f.literal))
	f.literal = m.end()
	return f.backend.PushMatch(dst, lits, m.len, m.pos-m.src)
}

func (f *Frontend) pushLiterals(dst []byte, n uint32) []byte {
	lits := f.bytes(f.literal, int(n))
	f.literal += n
	return f.backend.PushLiterals(dst, lits)
}
