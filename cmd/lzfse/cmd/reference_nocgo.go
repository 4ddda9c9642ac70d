//go:build !cgo

package cmd

var (
	referenceEncode func([]byte) []byte
	referenceDecode func([]byte) []byte
)
