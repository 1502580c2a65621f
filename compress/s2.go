package compress

import (
	"fmt"

	"github.com/klauspost/compress/s2"
)

// S2Codec compresses snapshot columns as S2 blocks. It encodes faster than
// zstd while still folding the long runs of repeated counters and timestamps
// that telemetry columns are made of.
type S2Codec struct{}

var _ Codec = S2Codec{}

// NewS2Codec returns the S2 column codec.
func NewS2Codec() S2Codec {
	return S2Codec{}
}

// Compress encodes a column with the "better" S2 mode. The output is a plain
// S2 block, readable by any S2 or Snappy block decoder.
func (S2Codec) Compress(column []byte) ([]byte, error) {
	if len(column) == 0 {
		return nil, nil
	}

	dst := make([]byte, s2.MaxEncodedLen(len(column)))

	return s2.EncodeBetter(dst, column), nil
}

// Decompress decodes an S2 block. The block's declared length is checked
// against the column limit before the output buffer is allocated.
func (S2Codec) Decompress(block []byte) ([]byte, error) {
	if len(block) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(block)
	if err != nil {
		return nil, fmt.Errorf("s2 block header: %w", err)
	}
	if n > maxDecodedColumn {
		return nil, fmt.Errorf("s2 block declares %d bytes, limit is %d", n, maxDecodedColumn)
	}

	return s2.Decode(make([]byte, n), block)
}
