package compress

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/rossdash/errs"
	"github.com/arloliu/rossdash/format"
)

var (
	zstdMagic     = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4FrameMagic = []byte{0x04, 0x22, 0x4d, 0x18}
	s2StreamMagic = []byte("\xff\x06\x00\x00S2sTwO")

	// S2 readers also accept Snappy framed streams.
	snappyStreamMagic = []byte("\xff\x06\x00\x00sNaPpY")
)

// sniffSize is the longest magic prefix Detect looks at.
const sniffSize = 10

// Detect identifies a compressed stream from its first bytes.
// Anything unrecognized is reported as CompressionNone.
func Detect(prefix []byte) format.CompressionType {
	switch {
	case bytes.HasPrefix(prefix, zstdMagic):
		return format.CompressionZstd
	case bytes.HasPrefix(prefix, lz4FrameMagic):
		return format.CompressionLZ4
	case bytes.HasPrefix(prefix, s2StreamMagic), bytes.HasPrefix(prefix, snappyStreamMagic):
		return format.CompressionS2
	default:
		return format.CompressionNone
	}
}

// NewReader sniffs r for a known compression magic and returns a reader
// yielding the decompressed stream along with the detected type.
//
// The raw ROSS format has no magic of its own and its leading bytes are the
// reserved flag, which may hold any value. A raw log whose flag equals one of
// the magics is misdetected, so callers only sniff when asked to.
func NewReader(r io.Reader) (io.ReadCloser, format.CompressionType, error) {
	br := bufio.NewReader(r)

	prefix, err := br.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, fmt.Errorf("sniff compression: %w", err)
	}

	ct := Detect(prefix)
	rc, err := NewTypedReader(br, ct)
	if err != nil {
		return nil, 0, err
	}

	return rc, ct, nil
}

// NewTypedReader returns a reader decompressing r with the given algorithm.
func NewTypedReader(r io.Reader, ct format.CompressionType) (io.ReadCloser, error) {
	switch ct {
	case format.CompressionNone:
		return io.NopCloser(r), nil
	case format.CompressionZstd:
		d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}

		return zstdReadCloser{d}, nil
	case format.CompressionS2:
		return io.NopCloser(s2.NewReader(r)), nil
	case format.CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, ct)
	}
}

// NewWriter returns a writer compressing into w with the given algorithm.
// Close flushes the compressed stream; it does not close w.
func NewWriter(w io.Writer, ct format.CompressionType) (io.WriteCloser, error) {
	switch ct {
	case format.CompressionNone:
		return nopWriteCloser{w}, nil
	case format.CompressionZstd:
		e, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}

		return e, nil
	case format.CompressionS2:
		return s2.NewWriter(w), nil
	case format.CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedCompression, ct)
	}
}

type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
