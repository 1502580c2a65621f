package encoding

import "iter"

// ColumnarEncoder defines the interface for encoding a single column of fixed-width values.
//
// Implementations accumulate values in an internal buffer and expose the
// encoded bytes through Bytes. Finish releases pooled resources; the encoder
// is unusable afterwards.
type ColumnarEncoder[T comparable] interface {
	// Bytes returns the encoded data accumulated so far.
	Bytes() []byte

	// Len returns the number of values encoded.
	Len() int

	// Size returns the encoded size in bytes.
	Size() int

	// Reset clears the encoder so it can encode a new column.
	Reset()

	// Finish returns internal buffers to the pool.
	Finish()

	// Write encodes a single value.
	Write(data T)

	// WriteSlice encodes a slice of values.
	WriteSlice(values []T)
}

// ColumnarDecoder defines the interface for decoding a column produced by a ColumnarEncoder.
type ColumnarDecoder[T comparable] interface {
	// All returns an iterator over the first count values in data.
	All(data []byte, count int) iter.Seq[T]

	// At returns the value at index, or false if index is out of range.
	At(data []byte, index int, count int) (T, bool)
}
