package lzfse

import (
	"github.com/andybalholm/lzfse/internal/format"
	"github.com/andybalholm/lzfse/internal/fse"
	"github.com/andybalholm/lzfse/internal/lz"
	"github.com/andybalholm/lzfse/internal/ring"
	"github.com/andybalholm/lzfse/internal/vn"
)

// An Encoder compresses whole buffers. It keeps its tables and buffers
// between calls, so reusing an Encoder avoids allocation.
type Encoder struct {
	// V1 makes the encoder write FSE blocks with the plain bvx1 header
	// instead of the packed bvx2 one.
	V1 bool

	fse   *fse.Encoder
	front *lz.Frontend
}

// NewEncoder returns an Encoder.
func NewEncoder() *Encoder {
	e := &Encoder{fse: fse.NewEncoder()}
	e.front = lz.NewFrontend(ring.New(ring.EncoderInput), e.fse, new(vn.Encoder))
	return e
}

func (e *Encoder) reset() {
	e.fse.V1 = e.V1
	e.front.Reset()
}

// EncodeBytes appends the compressed form of src to dst, and returns the
// result. It returns ErrBufferOverflow if src is longer than math.MaxInt32.
func (e *Encoder) EncodeBytes(src, dst []byte) ([]byte, error) {
	if len(src) > format.MaxBufferLen {
		return dst, format.ErrBufferOverflow
	}
	e.reset()
	dst = e.front.Write(dst, src)
	return e.front.Finalize(dst), nil
}

// EncodeBytes appends the compressed form of src to dst, using a new
// Encoder.
func EncodeBytes(src, dst []byte) ([]byte, error) {
	return NewEncoder().EncodeBytes(src, dst)
}
