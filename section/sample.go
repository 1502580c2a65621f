package section

import (
	"fmt"
	"math"

	"github.com/arloliu/rossdash/endian"
	"github.com/arloliu/rossdash/errs"
	"github.com/arloliu/rossdash/format"
)

// Sample is one decoded (header, payload) pair in layout order.
//
// Uints and Floats hold the payload fields in the order of the kind's Layout.
// VirtualTime and RealTime are copied from the header that preceded the payload.
type Sample struct {
	Kind        format.RecordKind
	Flag        int32
	VirtualTime float64
	RealTime    float64
	Uints       []uint32
	Floats      []float32
}

// ParsePayload decodes a payload of the given layout into s, reusing the
// Uints and Floats slices when they have enough capacity.
//
// Parameters:
//   - header: Header that preceded the payload
//   - layout: Payload layout selected from the header's payload length
//   - data: Payload bytes (must be exactly layout.Size() bytes)
//   - engine: Byte order the log was written with
//
// Returns:
//   - error: ErrInvalidPayloadSize if data does not match the layout size
func (s *Sample) ParsePayload(header SampleHeader, layout Layout, data []byte, engine endian.EndianEngine) error {
	if len(data) != layout.Size() {
		return fmt.Errorf("%w: %s payload wants %d bytes, got %d",
			errs.ErrInvalidPayloadSize, layout.Kind, layout.Size(), len(data))
	}

	s.Kind = layout.Kind
	s.Flag = header.Flag
	s.VirtualTime = header.VirtualTime
	s.RealTime = header.RealTime
	s.Uints = resize(s.Uints, len(layout.Uints))
	s.Floats = resize(s.Floats, len(layout.Floats))

	off := 0
	for i := range s.Uints {
		s.Uints[i] = engine.Uint32(data[off : off+4])
		off += 4
	}
	for i := range s.Floats {
		s.Floats[i] = math.Float32frombits(engine.Uint32(data[off : off+4]))
		off += 4
	}

	return nil
}

// Header returns the header that announces this sample.
func (s Sample) Header() SampleHeader {
	layout, _ := LayoutFor(s.Kind)

	return SampleHeader{
		Flag:          s.Flag,
		PayloadLength: int32(layout.Size()),
		VirtualTime:   s.VirtualTime,
		RealTime:      s.RealTime,
	}
}

// AppendPayload appends the encoded payload to buf.
func (s Sample) AppendPayload(buf []byte, engine endian.EndianEngine) []byte {
	for _, v := range s.Uints {
		buf = engine.AppendUint32(buf, v)
	}
	for _, v := range s.Floats {
		buf = engine.AppendUint32(buf, math.Float32bits(v))
	}

	return buf
}

// AppendTo appends the header followed by the payload to buf.
func (s Sample) AppendTo(buf []byte, engine endian.EndianEngine) []byte {
	buf = s.Header().AppendTo(buf, engine)
	return s.AppendPayload(buf, engine)
}

// Validate checks that the field counts match the kind's layout.
func (s Sample) Validate() error {
	layout, ok := LayoutFor(s.Kind)
	if !ok {
		return fmt.Errorf("%w: %d", errs.ErrUnknownRecordKind, s.Kind)
	}
	if len(s.Uints) != len(layout.Uints) || len(s.Floats) != len(layout.Floats) {
		return fmt.Errorf("%w: %s sample has %d counters and %d floats, layout has %d and %d",
			errs.ErrInvalidPayloadSize, s.Kind, len(s.Uints), len(s.Floats), len(layout.Uints), len(layout.Floats))
	}

	return nil
}

// Clone returns a deep copy of s.
func (s Sample) Clone() Sample {
	c := s
	c.Uints = append([]uint32(nil), s.Uints...)
	c.Floats = append([]float32(nil), s.Floats...)

	return c
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}

	return s[:n]
}
