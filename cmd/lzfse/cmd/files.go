package cmd

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

const ext = ".lzfse"

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	return f, nil
}

func createOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", path)
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// compressedName returns the default output name for compressing in.
func compressedName(in string) string {
	if in == "-" {
		return "-"
	}
	return in + ext
}

// decompressedName returns the default output name for decompressing in.
func decompressedName(in string) string {
	if in == "-" {
		return "-"
	}
	if strings.HasSuffix(in, ext) && len(in) > len(ext) {
		return strings.TrimSuffix(in, ext)
	}
	return in + ".out"
}
