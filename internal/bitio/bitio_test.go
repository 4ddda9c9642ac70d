package bitio

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/andybalholm/lzfse/internal/format"
)

type field struct {
	v uint32
	n int
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		fields := make([]field, rng.Intn(500))
		for i := range fields {
			n := rng.Intn(33)
			var v uint32
			if n > 0 {
				v = rng.Uint32() >> uint(32-n)
			}
			fields[i] = field{v, n}
		}

		var w Writer
		w.Reset(make([]byte, Slack))
		for _, f := range fields {
			w.Push(uint64(f.v), uint(f.n))
			w.Flush()
		}
		src, pad := w.Finish()

		var r Reader
		if err := r.Init(src, pad); err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
		for i := len(fields) - 1; i >= 0; i-- {
			r.Flush()
			if got := r.Pull(fields[i].n); got != fields[i].v {
				t.Fatalf("trial %d, field %d: got %#x, want %#x", trial, i, got, fields[i].v)
			}
		}
		if err := r.Finalize(); err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
	}
}

func TestEmptyStream(t *testing.T) {
	var w Writer
	w.Reset(make([]byte, Slack))
	src, pad := w.Finish()
	if len(src) != Slack || pad != 0 {
		t.Fatalf("got %d bytes, pad %d", len(src), pad)
	}
	var r Reader
	if err := r.Init(src, pad); err != nil {
		t.Fatal(err)
	}
	if err := r.Finalize(); err != nil {
		t.Fatal(err)
	}
}

func TestDirtyPadding(t *testing.T) {
	src := []byte{0, 0, 0, 0, 0, 0, 0, 0, 0xFF}
	var r Reader
	if err := r.Init(src, 1); !errors.Is(err, format.ErrBadBitStream) {
		t.Fatalf("got %v, want ErrBadBitStream", err)
	}
}

func TestOverread(t *testing.T) {
	var w Writer
	w.Reset(make([]byte, Slack))
	w.Push(0x5, 3)
	src, pad := w.Finish()

	var r Reader
	if err := r.Init(src, pad); err != nil {
		t.Fatal(err)
	}
	r.Flush()
	r.Pull(3)
	// Everything past here is slack.
	for i := 0; i < 4; i++ {
		r.Flush()
		r.Pull(32)
	}
	if err := r.Finalize(); !errors.Is(err, format.ErrPayloadUnderflow) {
		t.Fatalf("got %v, want ErrPayloadUnderflow", err)
	}
}
