package compress

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/klauspost/compress/s2"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/rossdash/errs"
	"github.com/arloliu/rossdash/format"
)

var allTypes = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
}

func payload() []byte {
	var buf bytes.Buffer
	for i := range 4096 {
		buf.WriteByte(byte(i % 7))
		buf.WriteByte(0)
	}

	return buf.Bytes()
}

func TestCodecs_RoundTrip(t *testing.T) {
	data := payload()

	for _, ct := range allTypes {
		t.Run(ct.String(), func(t *testing.T) {
			codec, err := GetCodec(ct)
			require.NoError(t, err)

			compressed, err := codec.Compress(data)
			require.NoError(t, err)
			if ct != format.CompressionNone {
				require.Less(t, len(compressed), len(data))
			}

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, data, decompressed)

			again, err := codec.Compress(data)
			require.NoError(t, err)
			require.Equal(t, compressed, again)
		})
	}
}

func TestCodecs_Empty(t *testing.T) {
	for _, ct := range allTypes {
		codec, err := GetCodec(ct)
		require.NoError(t, err)

		out, err := codec.Decompress(nil)
		require.NoError(t, err)
		require.Empty(t, out)
	}
}

func TestCodecs_Unsupported(t *testing.T) {
	_, err := GetCodec(format.CompressionType(0x7f))
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)

	_, err = GetCodec(format.CompressionType(0))
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
}

func TestZstd_CorruptedInput(t *testing.T) {
	_, err := NewZstdCompressor().Decompress([]byte{0x28, 0xb5, 0x2f, 0xfd, 1, 2, 3})
	require.Error(t, err)
}

func TestS2_DeclaredLengthLimit(t *testing.T) {
	codec := NewS2Codec()

	column := bytes.Repeat([]byte{0x10, 0x27, 0, 0}, 4096)
	block, err := codec.Compress(column)
	require.NoError(t, err)
	require.Less(t, len(block), len(column)/10)

	// Blocks are plain S2, so the stock decoder reads them.
	plain, err := s2.Decode(nil, block)
	require.NoError(t, err)
	require.Equal(t, column, plain)

	// A header claiming 1GiB is refused before anything is allocated for it.
	huge := binary.AppendUvarint(nil, 1<<30)
	huge = append(huge, 0x00, 0x01, 0x02)
	_, err = codec.Decompress(huge)
	require.ErrorContains(t, err, "limit")

	_, err = codec.Decompress([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff})
	require.Error(t, err)
}

func TestStream_RoundTrip(t *testing.T) {
	data := payload()

	for _, ct := range allTypes {
		t.Run(ct.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, ct)
			require.NoError(t, err)
			_, err = w.Write(data)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			require.Equal(t, ct, Detect(buf.Bytes()))

			r, detected, err := NewReader(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			require.Equal(t, ct, detected)

			out, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			require.Equal(t, data, out)
		})
	}
}

func TestNewReader_ShortAndEmptyInput(t *testing.T) {
	for _, in := range [][]byte{nil, {0x28}, {1, 2, 3}} {
		r, ct, err := NewReader(bytes.NewReader(in))
		require.NoError(t, err)
		require.Equal(t, format.CompressionNone, ct)

		out, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, len(in), len(out))
	}
}

func TestDetect_RawSampleHeader(t *testing.T) {
	header := []byte{0, 0, 0, 0, 44, 0, 0, 0, 0, 0}
	require.Equal(t, format.CompressionNone, Detect(header))
}

func TestStream_Unsupported(t *testing.T) {
	_, err := NewTypedReader(bytes.NewReader(nil), format.CompressionType(9))
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)

	_, err = NewWriter(io.Discard, format.CompressionType(9))
	require.ErrorIs(t, err, errs.ErrUnsupportedCompression)
}
