//go:build cgo

package lzfse

import (
	"bytes"
	"testing"

	reference "github.com/blacktop/lzfse-cgo"
	"github.com/stretchr/testify/require"
)

func TestReferenceDecodesOurs(t *testing.T) {
	for _, v1 := range []bool{false, true} {
		enc := NewEncoder()
		enc.V1 = v1
		for i, n := range []int{1, 20, 21, 1000, 4096, 4097, 100000, 0x40001, 1 << 20} {
			for _, src := range [][]byte{testData(n, int64(i)), cycle(n)} {
				compressed, err := enc.EncodeBytes(src, nil)
				require.NoError(t, err)
				out := reference.DecodeBuffer(compressed)
				require.True(t, bytes.Equal(src, out), "size %d, v1=%v", n, v1)
			}
		}
	}
}

func TestWeDecodeReference(t *testing.T) {
	dec := NewDecoder()
	// The reference encoder's output buffer is twice the input, too small for
	// the block overhead below 20 bytes.
	for i, n := range []int{20, 21, 1000, 4096, 4097, 100000, 1 << 20, 3 << 20} {
		for _, src := range [][]byte{testData(n, int64(i)), randomData(n, int64(i)), make([]byte, n)} {
			compressed := reference.EncodeBuffer(src)
			require.NotEmpty(t, compressed)
			out, err := dec.DecodeBytes(compressed, nil)
			require.NoError(t, err, "size %d", n)
			require.True(t, bytes.Equal(src, out), "size %d", n)
		}
	}
}
