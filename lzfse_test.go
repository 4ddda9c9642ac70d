package lzfse

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math/rand"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/stretchr/testify/require"

	"github.com/andybalholm/lzfse/internal/format"
)

var words = strings.Fields(`the of and to in is was that for it with as his on be at by
	light colours rays prism glass refraction experiment white red violet green`)

// testData returns n bytes of text with a sprinkling of random binary runs.
func testData(n int, seed int64) []byte {
	rnd := rand.New(rand.NewSource(seed))
	b := make([]byte, 0, n+64)
	for len(b) < n {
		if rnd.Intn(12) == 0 {
			run := make([]byte, 1+rnd.Intn(40))
			rnd.Read(run)
			b = append(b, run...)
			continue
		}
		b = append(b, words[rnd.Intn(len(words))]...)
		b = append(b, " ,.\n"[rnd.Intn(4)])
	}
	return b[:n]
}

func randomData(n int, seed int64) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(b)
	return b
}

func cycle(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func encode(t testing.TB, src []byte) []byte {
	t.Helper()
	enc, err := EncodeBytes(src, nil)
	require.NoError(t, err)
	return enc
}

func blockKinds(t testing.TB, enc []byte) []string {
	t.Helper()
	blocks, err := Scan(bytes.NewReader(enc))
	require.NoError(t, err)
	var kinds []string
	for _, b := range blocks {
		kinds = append(kinds, b.Kind())
	}
	return kinds
}

func TestScenarios(t *testing.T) {
	enc := encode(t, []byte("test"))
	require.Equal(t, []byte{
		0x62, 0x76, 0x78, 0x2d, 0x04, 0x00, 0x00, 0x00,
		0x74, 0x65, 0x73, 0x74, 0x62, 0x76, 0x78, 0x24,
	}, enc)
	dec, err := DecodeBytes(enc, nil)
	require.NoError(t, err)
	require.Equal(t, "test", string(dec))

	enc = encode(t, nil)
	require.Equal(t, []byte("bvx$"), enc)
	dec, err = DecodeBytes(enc, nil)
	require.NoError(t, err)
	require.Empty(t, dec)

	zeros := make([]byte, 4096)
	enc = encode(t, zeros)
	require.Equal(t, []string{"bvxn", "bvx$"}, blockKinds(t, enc))
	dec, err = DecodeBytes(enc, nil)
	require.NoError(t, err)
	require.Equal(t, zeros, dec)

	zeros = make([]byte, 524288)
	enc = encode(t, zeros)
	kinds := blockKinds(t, enc)
	require.Contains(t, kinds, "bvx2")
	require.Equal(t, "bvx$", kinds[len(kinds)-1])
	dec, err = DecodeBytes(enc, nil)
	require.NoError(t, err)
	require.Equal(t, zeros, dec)

	src := cycle(65536)
	enc = encode(t, src)
	require.LessOrEqual(t, len(enc), len(src)*7/10)
	dec, err = DecodeBytes(enc, nil)
	require.NoError(t, err)
	require.Equal(t, src, dec)
}

var roundTripSizes = []int{
	0, 1, 3, 4, 19, 20, 21, 100, 4095, 4096, 4097, 10000,
	0x40000 - 1, 0x40000, 0x40000 + 1, 1 << 20,
}

func TestRoundTrip(t *testing.T) {
	dec := NewDecoder()
	for _, v1 := range []bool{false, true} {
		enc := NewEncoder()
		enc.V1 = v1
		for i, n := range roundTripSizes {
			for _, src := range [][]byte{testData(n, int64(i)), randomData(n, int64(i)), cycle(n)} {
				compressed, err := enc.EncodeBytes(src, nil)
				require.NoError(t, err)
				require.True(t, bytes.HasSuffix(compressed, []byte("bvx$")))

				out, err := dec.DecodeBytes(compressed, nil)
				require.NoError(t, err)
				require.True(t, bytes.Equal(src, out), "size %d, v1=%v", n, v1)

				out, err = io.ReadAll(NewReader(bytes.NewReader(compressed)))
				require.NoError(t, err)
				require.True(t, bytes.Equal(src, out), "reader: size %d, v1=%v", n, v1)
			}
		}
	}
}

func TestV1Blocks(t *testing.T) {
	enc := NewEncoder()
	enc.V1 = true
	compressed, err := enc.EncodeBytes(testData(100000, 1), nil)
	require.NoError(t, err)
	kinds := blockKinds(t, compressed)
	require.Equal(t, "bvx$", kinds[len(kinds)-1])
	for _, k := range kinds[:len(kinds)-1] {
		require.Equal(t, "bvx1", k)
	}

	// The fixed fields take 50 bytes, the u16 weights 720 and the struct
	// padding 2; the payload follows at 772.
	blocks, err := Scan(bytes.NewReader(compressed))
	require.NoError(t, err)
	first := compressed[:blocks[0].Size]
	require.Equal(t, []byte{0, 0}, first[770:772])
	require.Equal(t, int64(772)+int64(binary.LittleEndian.Uint32(first[8:])), blocks[0].Size)
	var sum int
	for i := 50; i < 770; i += 2 {
		sum += int(binary.LittleEndian.Uint16(first[i:]))
	}
	require.Equal(t, 64+64+256+1024, sum)
}

func TestDecodeAppends(t *testing.T) {
	src := testData(5000, 2)
	out, err := DecodeBytes(encode(t, src), []byte("prefix"))
	require.NoError(t, err)
	require.Equal(t, append([]byte("prefix"), src...), out)
}

func TestDeterministic(t *testing.T) {
	src := testData(600000, 3)
	a := encode(t, src)
	b, err := NewEncoder().EncodeBytes(src, nil)
	require.NoError(t, err)
	require.Equal(t, a, b)

	// A reused encoder starts from scratch.
	e := NewEncoder()
	_, err = e.EncodeBytes(testData(300000, 4), nil)
	require.NoError(t, err)
	c, err := e.EncodeBytes(src, nil)
	require.NoError(t, err)
	require.Equal(t, a, c)
}

func TestChunkedWriter(t *testing.T) {
	for i, n := range []int{10, 3000, 100000, 400000} {
		src := testData(n, int64(i))
		want := encode(t, src)

		rnd := rand.New(rand.NewSource(int64(i)))
		var buf bytes.Buffer
		w := NewWriter(&buf)
		for p := src; len(p) > 0; {
			k := min(len(p), 1+rnd.Intn(32))
			written, err := w.Write(p[:k])
			require.NoError(t, err)
			require.Equal(t, k, written)
			p = p[k:]
		}
		require.NoError(t, w.Finalize())
		require.Equal(t, want, buf.Bytes(), "size %d", n)
	}
}

func TestFinalize(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	_, err := w.Write(testData(5000, 5))
	require.NoError(t, err)
	require.NoError(t, w.Flush())
	require.NoError(t, w.Finalize())
	require.True(t, bytes.HasSuffix(buf.Bytes(), []byte("bvx$")))
	n := buf.Len()

	require.ErrorIs(t, w.Finalize(), ErrFinalized)
	_, err = w.Write([]byte("more"))
	require.ErrorIs(t, err, ErrFinalized)
	require.NoError(t, w.Close())
	require.Equal(t, n, buf.Len())

	w.Reset(&buf)
	require.NoError(t, w.Close())
	require.Equal(t, "bvx$", buf.String()[n:])
}

type failWriter struct{ n int }

func (f *failWriter) Write(p []byte) (int, error) {
	if f.n < len(p) {
		k := f.n
		f.n = 0
		return k, errors.New("disk full")
	}
	f.n -= len(p)
	return len(p), nil
}

func TestWriterError(t *testing.T) {
	w := NewWriter(&failWriter{n: 100})
	_, err := w.Write(randomData(500000, 6))
	require.EqualError(t, err, "disk full")
	_, err = w.Write([]byte("x"))
	require.EqualError(t, err, "disk full")
	require.EqualError(t, w.Finalize(), "disk full")
}

func TestRingCodecs(t *testing.T) {
	re := NewRingEncoder()
	rd := NewRingDecoder()
	for i, n := range []int{0, 50, 5000, 700000} {
		src := testData(n, int64(i))
		var compressed bytes.Buffer
		nIn, nOut, err := re.Encode(bytes.NewReader(src), &compressed)
		require.NoError(t, err)
		require.EqualValues(t, n, nIn)
		require.EqualValues(t, compressed.Len(), nOut)
		require.Equal(t, encode(t, src), compressed.Bytes())

		var out bytes.Buffer
		cIn, cOut, err := rd.Decode(bytes.NewReader(compressed.Bytes()), &out)
		require.NoError(t, err)
		require.EqualValues(t, compressed.Len(), cIn)
		require.EqualValues(t, n, cOut)
		require.True(t, bytes.Equal(src, out.Bytes()))
	}
}

func TestReaderSmallReads(t *testing.T) {
	src := testData(20000, 7)
	compressed := encode(t, src)

	out, err := io.ReadAll(iotest.OneByteReader(NewReader(iotest.HalfReader(bytes.NewReader(compressed)))))
	require.NoError(t, err)
	require.True(t, bytes.Equal(src, out))

	out, err = io.ReadAll(NewReader(iotest.OneByteReader(bytes.NewReader(compressed))))
	require.NoError(t, err)
	require.True(t, bytes.Equal(src, out))
}

func TestReaderIgnoresTrailingData(t *testing.T) {
	src := testData(3000, 8)
	compressed := append(encode(t, src), "garbage"...)
	out, err := io.ReadAll(NewReader(bytes.NewReader(compressed)))
	require.NoError(t, err)
	require.Equal(t, src, out)

	out, err = DecodeBytes(compressed, nil)
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestReaderState(t *testing.T) {
	r := NewReader(strings.NewReader("bvx%0000"))
	_, err := r.Read(make([]byte, 10))
	var bb *BadBlockError
	require.ErrorAs(t, err, &bb)
	require.Equal(t, uint32(0x25787662), bb.Magic)

	_, err = r.Read(make([]byte, 10))
	require.ErrorIs(t, err, ErrBadReaderState)

	src := testData(1000, 9)
	r.Reset(bytes.NewReader(encode(t, src)))
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, src, out)

	_, err = r.Read(make([]byte, 10))
	require.Equal(t, io.EOF, err)
}

func TestTruncated(t *testing.T) {
	for _, src := range [][]byte{[]byte("test"), testData(3000, 10), testData(300000, 11)} {
		compressed := encode(t, src)
		step := max(1, len(compressed)/200)
		for n := 0; n < len(compressed); n += step {
			_, err := DecodeBytes(compressed[:n], nil)
			require.Error(t, err, "prefix of %d bytes", n)
			_, err = io.ReadAll(NewReader(bytes.NewReader(compressed[:n])))
			require.Error(t, err, "reader: prefix of %d bytes", n)
		}
		_, err := DecodeBytes(compressed[:len(compressed)-1], nil)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	}

	_, err := DecodeBytes([]byte("bvx-\x10\x00\x00\x00short"), nil)
	require.ErrorIs(t, err, ErrPayloadUnderflow)
}

func TestBadBlocks(t *testing.T) {
	_, err := DecodeBytes([]byte("hello, world"), nil)
	var bb *BadBlockError
	require.ErrorAs(t, err, &bb)

	vn := append([]byte("bvxn\x01\x00\x00\x00\x04\x00\x00\x00"), "\x06\x00\x00\x00bvx$"...)
	_, err = DecodeBytes(vn, nil)
	var ve *VnError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, BadVnPayloadCount, ve.Kind)

	_, err = DecodeBytes([]byte("bvx2\x00\x00\x00\x00"), nil)
	require.ErrorIs(t, err, ErrPayloadUnderflow)
}

// mutate applies a random single-byte, two-byte, word or double-word
// corruption to a copy of b.
func mutate(rnd *rand.Rand, b []byte) []byte {
	b = bytes.Clone(b)
	width := []int{1, 2, 4, 8}[rnd.Intn(4)]
	if len(b) < width {
		return b
	}
	i := rnd.Intn(len(b) - width + 1)
	switch width {
	case 1:
		b[i] ^= byte(1 + rnd.Intn(255))
	case 2:
		binary.LittleEndian.PutUint16(b[i:], uint16(rnd.Uint32()))
	case 4:
		binary.LittleEndian.PutUint32(b[i:], rnd.Uint32())
	case 8:
		binary.LittleEndian.PutUint64(b[i:], rnd.Uint64())
	}
	return b
}

func TestMutations(t *testing.T) {
	rnd := rand.New(rand.NewSource(12))
	dec := NewDecoder()
	r := NewReader(nil)
	for _, src := range [][]byte{testData(2000, 13), testData(60000, 14), cycle(30000)} {
		compressed := encode(t, src)
		for i := 0; i < 2000; i++ {
			m := mutate(rnd, compressed)
			out, err := dec.DecodeBytes(m, nil)
			if err == nil {
				require.LessOrEqual(t, len(out), len(src)+1<<16)
			} else {
				require.True(t, IsFormatError(err) || errors.Is(err, io.ErrUnexpectedEOF), "%v", err)
			}

			r.Reset(bytes.NewReader(m))
			rout, rerr := io.ReadAll(r)
			if err == nil {
				require.NoError(t, rerr)
				require.Equal(t, out, rout)
			}
		}
	}
}

func TestScan(t *testing.T) {
	src := testData(600000, 15)
	compressed := encode(t, src)
	blocks, err := Scan(bytes.NewReader(compressed))
	require.NoError(t, err)
	require.Greater(t, len(blocks), 2)

	var off, raw int64
	for _, b := range blocks {
		require.Equal(t, off, b.Offset)
		off += b.Size
		raw += int64(b.NRaw)
	}
	require.EqualValues(t, len(compressed), off)
	require.EqualValues(t, len(src), raw)
	require.Equal(t, uint32(format.MagicEOS), blocks[len(blocks)-1].Magic)

	_, err = Scan(bytes.NewReader(compressed[:len(compressed)/2]))
	require.Error(t, err)
}

func TestAsIOError(t *testing.T) {
	require.NoError(t, AsIOError(nil))
	require.Equal(t, io.ErrUnexpectedEOF, AsIOError(io.ErrUnexpectedEOF))

	err := AsIOError(ErrBadDValue)
	var ide *InvalidDataError
	require.ErrorAs(t, err, &ide)
	require.ErrorIs(t, err, ErrBadDValue)
	require.Equal(t, err, AsIOError(err))

	_, err = DecodeBytes([]byte("nope"), nil)
	require.True(t, IsFormatError(err))
	require.ErrorAs(t, AsIOError(err), &ide)
}

func TestDebugLogging(t *testing.T) {
	l := log.Log.(*log.Logger)
	saved := *l
	defer func() { *l = saved }()
	h := memory.New()
	l.Handler = h
	l.Level = log.DebugLevel

	var buf bytes.Buffer
	w := NewWriter(&buf)
	_, err := w.Write(testData(10000, 5))
	require.NoError(t, err)
	require.NoError(t, w.Finalize())
	_, err = io.Copy(io.Discard, NewReader(&buf))
	require.NoError(t, err)

	var blocks []string
	for _, e := range h.Entries {
		require.Equal(t, "lzfse", e.Fields.Get("pkg"))
		if e.Message == "decoding block" {
			blocks = append(blocks, e.Fields.Get("block").(string))
		}
	}
	require.Equal(t, "stream finalized", h.Entries[0].Message)
	require.Equal(t, []string{"bvx2", "bvx$"}, blocks)
}
