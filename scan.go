package lzfse

import (
	"bufio"
	"io"

	"github.com/andybalholm/lzfse/internal/format"
)

// BlockInfo describes one block of a stream.
type BlockInfo struct {
	Offset int64  // position of the block in the stream
	Magic  uint32 // block type
	Size   int64  // bytes the block occupies, header included
	NRaw   uint32 // bytes the block decodes to
}

// Kind returns the block's four character tag, such as "bvx2".
func (b BlockInfo) Kind() string {
	return format.Name(b.Magic)
}

// Scan reads the block headers of the stream in r, skipping over the
// payloads without decoding them. The last block returned is the
// end-of-stream block, unless there was an error.
func Scan(r io.Reader) ([]BlockInfo, error) {
	br := bufio.NewReader(r)
	var (
		blocks []BlockInfo
		hdr    []byte
		off    int64
	)
	for {
		hdr = hdr[:0]
		var h blockHeader
		for need := int64(format.MagicSize); h.size == 0; {
			k := int(need) - len(hdr)
			hdr = append(hdr, make([]byte, k)...)
			if n, err := io.ReadFull(br, hdr[len(hdr)-k:]); err != nil {
				if err == io.EOF || err == io.ErrUnexpectedEOF {
					err = truncated(len(hdr) - k + n)
				}
				return blocks, err
			}
			var err error
			h, need, err = probe(hdr)
			if err != nil {
				return blocks, err
			}
		}

		b := BlockInfo{
			Offset: off,
			Magic:  h.magic,
			Size:   h.size,
			NRaw:   h.nRaw,
		}
		if h.magic == format.MagicRaw {
			b.Size += int64(h.nRaw)
		}
		blocks = append(blocks, b)
		if h.magic == format.MagicEOS {
			return blocks, nil
		}
		skip := b.Size - int64(len(hdr))
		if _, err := br.Discard(int(skip)); err != nil {
			if err == io.EOF {
				err = format.ErrPayloadUnderflow
			}
			return blocks, err
		}
		off += b.Size
	}
}
