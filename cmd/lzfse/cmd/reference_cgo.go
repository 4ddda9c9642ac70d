//go:build cgo

package cmd

import lzfse "github.com/blacktop/lzfse-cgo"

// The reference C implementation, for cross-checking and benchmarks.
var (
	referenceEncode = lzfse.EncodeBuffer
	referenceDecode = lzfse.DecodeBuffer
)
