package lzfse

import (
	"io"

	"github.com/andybalholm/lzfse/internal/ring"
)

// writeChunk is how much input a Writer encodes before passing the
// finished blocks on.
const writeChunk = 1 << 16

// A Writer compresses the data written to it. Finalize (or Close) must be
// called to write the last block and the end-of-stream marker.
type Writer struct {
	dest io.Writer
	enc  *Encoder
	buf  []byte // encoded output not yet written to dest
	in   []byte
	n    int64 // bytes written to dest
	err  error
	done bool
}

// NewWriter returns a Writer that writes an LZFSE stream to w.
func NewWriter(w io.Writer) *Writer {
	wr := newWriter()
	wr.Reset(w)
	return wr
}

func newWriter() *Writer {
	return &Writer{
		enc: NewEncoder(),
		buf: make([]byte, 0, ring.EncoderOutput.Size),
	}
}

// Reset discards the Writer's state and makes it write a new stream to w.
func (w *Writer) Reset(dest io.Writer) {
	w.enc.reset()
	w.dest = dest
	w.buf = w.buf[:0]
	w.n = 0
	w.err = nil
	w.done = false
}

func (w *Writer) Write(p []byte) (int, error) {
	if w.done {
		return 0, ErrFinalized
	}
	if w.err != nil {
		return 0, w.err
	}
	n := 0
	for len(p) > 0 {
		k := min(len(p), writeChunk)
		w.buf = w.enc.front.Write(w.buf, p[:k])
		if err := w.flush(); err != nil {
			return n, err
		}
		n += k
		p = p[k:]
	}
	return n, nil
}

// ReadFrom compresses everything from r until io.EOF.
func (w *Writer) ReadFrom(r io.Reader) (int64, error) {
	if w.in == nil {
		w.in = make([]byte, ring.EncoderInput.BlockSize)
	}
	var n int64
	for {
		k, err := r.Read(w.in)
		if k > 0 {
			if _, werr := w.Write(w.in[:k]); werr != nil {
				return n, werr
			}
			n += int64(k)
		}
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
	}
}

// Flush writes any complete blocks to the underlying writer. Data that has
// not yet been formed into a block stays buffered until Finalize.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	return w.flush()
}

func (w *Writer) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	n, err := w.dest.Write(w.buf)
	w.n += int64(n)
	if err == nil && n < len(w.buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		w.err = err
		return err
	}
	w.buf = w.buf[:0]
	return nil
}

// Finalize encodes the remaining input and writes the end-of-stream block.
// Calling it a second time returns ErrFinalized.
func (w *Writer) Finalize() error {
	if w.done {
		return ErrFinalized
	}
	if w.err != nil {
		return w.err
	}
	w.done = true
	w.buf = w.enc.front.Finalize(w.buf)
	if err := w.flush(); err != nil {
		return err
	}
	logger.WithField("size", w.n).Debug("stream finalized")
	return nil
}

// Close finalizes the stream if that has not been done already. It does not
// close the underlying writer.
func (w *Writer) Close() error {
	if w.done {
		return w.err
	}
	return w.Finalize()
}

// A RingEncoder compresses streams through a fixed-size ring buffer. It can
// be reused for any number of streams.
type RingEncoder struct {
	// V1 makes the encoder write FSE blocks with the plain bvx1 header.
	V1 bool

	wr *Writer
}

// NewRingEncoder returns a RingEncoder.
func NewRingEncoder() *RingEncoder {
	return &RingEncoder{wr: newWriter()}
}

// Writer returns a Writer compressing to w. It shares the RingEncoder's
// state, so it is only valid until the next call to Writer or Encode.
func (e *RingEncoder) Writer(w io.Writer) *Writer {
	e.wr.enc.V1 = e.V1
	e.wr.Reset(w)
	return e.wr
}

// Encode compresses all of r to w. It returns the number of bytes read and
// written.
func (e *RingEncoder) Encode(r io.Reader, w io.Writer) (nIn, nOut int64, err error) {
	wr := e.Writer(w)
	nIn, err = wr.ReadFrom(r)
	if err == nil {
		err = wr.Finalize()
	}
	return nIn, wr.n, err
}
