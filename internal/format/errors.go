package format

import (
	"errors"
	"fmt"
)

var (
	// ErrBadBitStream means an FSE bit stream did not start on a clean
	// boundary.
	ErrBadBitStream = errors.New("lzfse: bad bit stream")

	// ErrBadDValue means a match distance was zero or reached back before the
	// start of the output.
	ErrBadDValue = errors.New("lzfse: bad match distance")

	// ErrBadReaderState is returned by a reader that has already failed.
	ErrBadReaderState = errors.New("lzfse: bad reader state")

	// ErrBufferOverflow means a buffer would grow past MaxBufferLen.
	ErrBufferOverflow = errors.New("lzfse: buffer overflow")

	// ErrPayloadOverflow means a block held more payload than it declared.
	ErrPayloadOverflow = errors.New("lzfse: payload overflow")

	// ErrPayloadUnderflow means a block held less payload than it declared.
	ErrPayloadUnderflow = errors.New("lzfse: payload underflow")
)

// BadBlockError reports an unknown block magic number.
type BadBlockError struct {
	Magic uint32
}

func (e *BadBlockError) Error() string {
	return fmt.Sprintf("lzfse: bad block: 0x%08X", e.Magic)
}

// FseKind identifies what was wrong with an FSE block.
type FseKind int

const (
	BadLiteralBits FseKind = iota + 1
	BadLiteralCount
	BadLiteralPayload
	BadLiteralState
	BadLmdBits
	BadLmdCount
	BadLmdPayload
	BadLmdState
	BadPayloadCount
	BadRawByteCount
	BadFseReaderState
	BadWeightPayload
	BadWeightPayloadCount
	WeightPayloadOverflow
	WeightPayloadUnderflow
)

var fseKindNames = [...]string{
	BadLiteralBits:         "bad literal bits",
	BadLiteralCount:        "bad literal count",
	BadLiteralPayload:      "bad literal payload",
	BadLiteralState:        "bad literal state",
	BadLmdBits:             "bad lmd bits",
	BadLmdCount:            "bad lmd count",
	BadLmdPayload:          "bad lmd payload",
	BadLmdState:            "bad lmd state",
	BadPayloadCount:        "bad payload count",
	BadRawByteCount:        "bad raw byte count",
	BadFseReaderState:      "bad reader state",
	BadWeightPayload:       "bad weight payload",
	BadWeightPayloadCount:  "bad weight payload count",
	WeightPayloadOverflow:  "weight payload overflow",
	WeightPayloadUnderflow: "weight payload underflow",
}

func (k FseKind) String() string {
	if k > 0 && int(k) < len(fseKindNames) {
		return fseKindNames[k]
	}
	return fmt.Sprintf("FseKind(%d)", int(k))
}

// FseError reports a malformed FSE block. Value carries the offending count
// for BadLiteralCount and BadLmdCount.
type FseError struct {
	Kind  FseKind
	Value uint32
}

func (e *FseError) Error() string {
	switch e.Kind {
	case BadLiteralCount, BadLmdCount:
		return fmt.Sprintf("lzfse: fse: %v: %d", e.Kind, e.Value)
	}
	return "lzfse: fse: " + e.Kind.String()
}

// Is matches any FseError of the same kind, so errors.Is(err, &FseError{Kind: k})
// ignores Value.
func (e *FseError) Is(target error) bool {
	t, ok := target.(*FseError)
	return ok && t.Kind == e.Kind
}

// Fse returns an *FseError of the given kind.
func Fse(k FseKind) error {
	return &FseError{Kind: k}
}

// VnKind identifies what was wrong with a VN block.
type VnKind int

const (
	BadVnPayloadCount VnKind = iota + 1
	BadVnPayload
	BadOpcode
)

func (k VnKind) String() string {
	switch k {
	case BadVnPayloadCount:
		return "bad payload count"
	case BadVnPayload:
		return "bad payload"
	case BadOpcode:
		return "bad opcode"
	}
	return fmt.Sprintf("VnKind(%d)", int(k))
}

// VnError reports a malformed VN block.
type VnError struct {
	Kind  VnKind
	Value uint32
}

func (e *VnError) Error() string {
	if e.Kind == BadVnPayloadCount {
		return fmt.Sprintf("lzfse: vn: %v: %d", e.Kind, e.Value)
	}
	return "lzfse: vn: " + e.Kind.String()
}

func (e *VnError) Is(target error) bool {
	t, ok := target.(*VnError)
	return ok && t.Kind == e.Kind
}

// Vn returns a *VnError of the given kind.
func Vn(k VnKind) error {
	return &VnError{Kind: k}
}

// IsFormat reports whether err describes malformed input rather than a
// failure of the underlying reader or writer.
func IsFormat(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrBadBitStream),
		errors.Is(err, ErrBadDValue),
		errors.Is(err, ErrBadReaderState),
		errors.Is(err, ErrBufferOverflow),
		errors.Is(err, ErrPayloadOverflow),
		errors.Is(err, ErrPayloadUnderflow):
		return true
	}
	var (
		bb *BadBlockError
		fe *FseError
		ve *VnError
	)
	return errors.As(err, &bb) || errors.As(err, &fe) || errors.As(err, &ve)
}
