package raw

import (
	"bytes"
	"errors"
	"testing"

	"github.com/andybalholm/lzfse/internal/format"
)

func TestAppend(t *testing.T) {
	b := Append([]byte{0xFF}, []byte("abc"))
	want := []byte{0xFF, 'b', 'v', 'x', '-', 3, 0, 0, 0, 'a', 'b', 'c'}
	if !bytes.Equal(b, want) {
		t.Fatalf("got %x, want %x", b, want)
	}
	h, err := ParseHeader(b[1:])
	if err != nil {
		t.Fatal(err)
	}
	if h.NRaw != 3 {
		t.Fatalf("NRaw = %d, want 3", h.NRaw)
	}
}

func TestParseHeaderErrors(t *testing.T) {
	if _, err := ParseHeader([]byte("bvx-")); !errors.Is(err, format.ErrPayloadUnderflow) {
		t.Fatalf("short header: got %v", err)
	}
	_, err := ParseHeader([]byte("bvx2\x00\x00\x00\x00"))
	var bad *format.BadBlockError
	if !errors.As(err, &bad) || bad.Magic != format.MagicV2 {
		t.Fatalf("wrong magic: got %v", err)
	}
}
