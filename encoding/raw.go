package encoding

import (
	"fmt"
	"iter"
	"math"
	"unsafe"

	"github.com/arloliu/rossdash/endian"
	"github.com/arloliu/rossdash/internal/pool"
)

// Fixed is the set of primitive types a telemetry column can hold.
type Fixed interface {
	int32 | uint32 | float32 | float64
}

// Width returns the encoded width of T in bytes.
func Width[T Fixed]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// RawEncoder encodes fixed-width values in their binary representation
// (two's complement or IEEE 754) using the specified endianness.
//
// It is the encoding used for snapshot columns: values keep their width, so
// any index can be decoded without touching its neighbours.
type RawEncoder[T Fixed] struct {
	buf    *pool.ByteBuffer
	engine endian.EndianEngine
	put    func([]byte, T) []byte
	count  int
}

var (
	_ ColumnarEncoder[uint32]  = (*RawEncoder[uint32])(nil)
	_ ColumnarEncoder[float64] = (*RawEncoder[float64])(nil)
)

// NewRawEncoder creates a raw encoder for T using the specified endian engine.
//
// Parameters:
//   - engine: Endian engine for byte order (typically little-endian)
//
// Returns:
//   - *RawEncoder[T]: A new encoder backed by a pooled buffer
func NewRawEncoder[T Fixed](engine endian.EndianEngine) *RawEncoder[T] {
	return &RawEncoder[T]{
		buf:    pool.GetColumnBuffer(),
		engine: engine,
		put:    appender[T](engine),
	}
}

// Write encodes a single value.
//
// Panics if Finish() has been called.
func (e *RawEncoder[T]) Write(val T) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}

	e.count++
	e.buf.Grow(Width[T]())
	e.buf.B = e.put(e.buf.B, val)
}

// WriteSlice encodes a slice of values with a single buffer growth.
//
// Panics if Finish() has been called.
func (e *RawEncoder[T]) WriteSlice(values []T) {
	if e.buf == nil {
		panic("encoder already finished - cannot write after Finish()")
	}
	if len(values) == 0 {
		return
	}

	e.count += len(values)
	e.buf.Grow(len(values) * Width[T]())
	for _, v := range values {
		e.buf.B = e.put(e.buf.B, v)
	}
}

// Bytes returns the encoded bytes. The slice is valid until the next write, Reset or Finish.
func (e *RawEncoder[T]) Bytes() []byte {
	if e.buf == nil {
		panic("encoder already finished - cannot access bytes after Finish()")
	}

	return e.buf.Bytes()
}

// Len returns the number of encoded values.
func (e *RawEncoder[T]) Len() int {
	return e.count
}

// Size returns the encoded size in bytes.
func (e *RawEncoder[T]) Size() int {
	if e.buf == nil {
		panic("encoder already finished - cannot access size after Finish()")
	}

	return e.buf.Len()
}

// Reset discards encoded values but keeps the buffer for reuse.
func (e *RawEncoder[T]) Reset() {
	if e.buf != nil {
		e.buf.Reset()
	}
	e.count = 0
}

// Finish returns the buffer to the pool. The encoder must not be used afterwards.
func (e *RawEncoder[T]) Finish() {
	if e.buf != nil {
		pool.PutColumnBuffer(e.buf)
		e.buf = nil
	}
	e.count = 0
}

// RawDecoder decodes byte slices produced by RawEncoder.
//
// The decoder is immutable and stateless; it is returned by value.
type RawDecoder[T Fixed] struct {
	get   func([]byte) T
	width int
}

var (
	_ ColumnarDecoder[uint32]  = RawDecoder[uint32]{}
	_ ColumnarDecoder[float64] = RawDecoder[float64]{}
)

// NewRawDecoder creates a raw decoder for T. The engine must match the encoder's.
func NewRawDecoder[T Fixed](engine endian.EndianEngine) RawDecoder[T] {
	return RawDecoder[T]{get: reader[T](engine), width: Width[T]()}
}

// All returns an iterator over the first count values in data.
// It yields nothing when data is shorter than count values.
func (d RawDecoder[T]) All(data []byte, count int) iter.Seq[T] {
	return func(yield func(T) bool) {
		if count == 0 || len(data) < count*d.width {
			return
		}

		for i := range count {
			start := i * d.width
			if !yield(d.get(data[start : start+d.width])) {
				return
			}
		}
	}
}

// At returns the value at index.
//
// Returns false if index is negative, not below count, or past the end of data.
func (d RawDecoder[T]) At(data []byte, index int, count int) (T, bool) {
	var zero T
	if index < 0 || index >= count {
		return zero, false
	}

	start := index * d.width
	if start+d.width > len(data) {
		return zero, false
	}

	return d.get(data[start : start+d.width]), true
}

// DecodeInto fills dst from data, which must hold exactly len(dst) values.
func (d RawDecoder[T]) DecodeInto(dst []T, data []byte) error {
	if len(data) != len(dst)*d.width {
		return fmt.Errorf("raw column: want %d bytes for %d values, got %d", len(dst)*d.width, len(dst), len(data))
	}

	for i := range dst {
		start := i * d.width
		dst[i] = d.get(data[start : start+d.width])
	}

	return nil
}

func appender[T Fixed](engine endian.EndianEngine) func([]byte, T) []byte {
	var zero T
	var fn any
	switch any(zero).(type) {
	case int32:
		fn = func(b []byte, v int32) []byte { return engine.AppendUint32(b, uint32(v)) }
	case uint32:
		fn = engine.AppendUint32
	case float32:
		fn = func(b []byte, v float32) []byte { return engine.AppendUint32(b, math.Float32bits(v)) }
	case float64:
		fn = func(b []byte, v float64) []byte { return engine.AppendUint64(b, math.Float64bits(v)) }
	}

	return fn.(func([]byte, T) []byte)
}

func reader[T Fixed](engine endian.EndianEngine) func([]byte) T {
	var zero T
	var fn any
	switch any(zero).(type) {
	case int32:
		fn = func(b []byte) int32 { return int32(engine.Uint32(b)) }
	case uint32:
		fn = engine.Uint32
	case float32:
		fn = func(b []byte) float32 { return math.Float32frombits(engine.Uint32(b)) }
	case float64:
		fn = func(b []byte) float64 { return math.Float64frombits(engine.Uint64(b)) }
	}

	return fn.(func([]byte) T)
}
