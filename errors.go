package lzfse

import (
	"errors"

	"github.com/andybalholm/lzfse/internal/format"
)

// Errors reported while decoding. They are returned as is, or wrapped in a
// *FseError, *VnError or *BadBlockError; use errors.Is to test for them.
var (
	ErrBadBitStream     = format.ErrBadBitStream
	ErrBadDValue        = format.ErrBadDValue
	ErrBadReaderState   = format.ErrBadReaderState
	ErrBufferOverflow   = format.ErrBufferOverflow
	ErrPayloadOverflow  = format.ErrPayloadOverflow
	ErrPayloadUnderflow = format.ErrPayloadUnderflow
)

// ErrFinalized is returned by a Writer that has already written the
// end-of-stream block.
var ErrFinalized = errors.New("lzfse: writer already finalized")

type (
	// BadBlockError reports a block with an unknown magic number.
	BadBlockError = format.BadBlockError

	// FseError reports a malformed bvx1 or bvx2 block.
	FseError = format.FseError
	FseKind  = format.FseKind

	// VnError reports a malformed bvxn block.
	VnError = format.VnError
	VnKind  = format.VnKind
)

const (
	BadLiteralBits         = format.BadLiteralBits
	BadLiteralCount        = format.BadLiteralCount
	BadLiteralPayload      = format.BadLiteralPayload
	BadLiteralState        = format.BadLiteralState
	BadLmdBits             = format.BadLmdBits
	BadLmdCount            = format.BadLmdCount
	BadLmdPayload          = format.BadLmdPayload
	BadLmdState            = format.BadLmdState
	BadPayloadCount        = format.BadPayloadCount
	BadRawByteCount        = format.BadRawByteCount
	BadFseReaderState      = format.BadFseReaderState
	BadWeightPayload       = format.BadWeightPayload
	BadWeightPayloadCount  = format.BadWeightPayloadCount
	WeightPayloadOverflow  = format.WeightPayloadOverflow
	WeightPayloadUnderflow = format.WeightPayloadUnderflow

	BadVnPayloadCount = format.BadVnPayloadCount
	BadVnPayload      = format.BadVnPayload
	BadOpcode         = format.BadOpcode
)

// IsFormatError reports whether err means the compressed data is malformed,
// as opposed to a failure of the underlying reader or writer.
func IsFormatError(err error) bool {
	return format.IsFormat(err)
}

// InvalidDataError is the I/O error form of a format error.
type InvalidDataError struct {
	Err error
}

func (e *InvalidDataError) Error() string {
	return "invalid data: " + e.Err.Error()
}

func (e *InvalidDataError) Unwrap() error {
	return e.Err
}

// AsIOError wraps format errors in an *InvalidDataError. Other errors,
// including nil, are returned unchanged.
func AsIOError(err error) error {
	if !format.IsFormat(err) {
		return err
	}
	var ide *InvalidDataError
	if errors.As(err, &ide) {
		return err
	}
	return &InvalidDataError{Err: err}
}
