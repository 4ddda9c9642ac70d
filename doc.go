// Package lzfse implements the LZFSE compressed data format.
//
// An LZFSE stream is a sequence of blocks, each starting with a four byte
// magic number, followed by an end-of-stream block:
//
//	bvx-  uncompressed data
//	bvx1  LZ77 matches and literals, entropy coded with FSE; plain header
//	bvx2  the same, with a packed header
//	bvxn  LZVN, a byte-aligned LZ77 format for short inputs
//	bvx$  end of stream
//
// EncodeBytes and DecodeBytes work on whole buffers. Writer and Reader
// stream through fixed-size ring buffers, and produce output identical to
// the one-shot functions however the input is split.
package lzfse
