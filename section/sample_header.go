package section

import (
	"math"

	"github.com/arloliu/rossdash/endian"
	"github.com/arloliu/rossdash/errs"
)

// SampleHeader precedes every payload in a ROSS instrumentation log.
type SampleHeader struct {
	// Flag is reserved by the engine. The decoder never branches on it.
	Flag int32 // byte offset 0-3
	// PayloadLength is the byte length of the payload that follows and the
	// only indication of its record kind.
	PayloadLength int32 // byte offset 4-7
	// VirtualTime is the simulation clock when the sample was taken.
	VirtualTime float64 // byte offset 8-15
	// RealTime is the wall clock when the sample was taken.
	RealTime float64 // byte offset 16-23
}

// NewSampleHeader creates a header announcing a payload of the given kind's layout.
func NewSampleHeader(layout Layout, virtualTime, realTime float64) SampleHeader {
	return SampleHeader{
		PayloadLength: int32(layout.Size()),
		VirtualTime:   virtualTime,
		RealTime:      realTime,
	}
}

// Parse parses the header from a byte slice.
//
// Parameters:
//   - data: Byte slice containing the header (must be exactly HeaderSize bytes)
//   - engine: Byte order the log was written with
//
// Returns:
//   - error: ErrInvalidHeaderSize if data is not HeaderSize bytes
func (h *SampleHeader) Parse(data []byte, engine endian.EndianEngine) error {
	if len(data) != HeaderSize {
		return errs.ErrInvalidHeaderSize
	}

	h.Flag = int32(engine.Uint32(data[0:4]))
	h.PayloadLength = int32(engine.Uint32(data[4:8]))
	h.VirtualTime = math.Float64frombits(engine.Uint64(data[8:16]))
	h.RealTime = math.Float64frombits(engine.Uint64(data[16:24]))

	return nil
}

// AppendTo appends the encoded header to buf.
func (h SampleHeader) AppendTo(buf []byte, engine endian.EndianEngine) []byte {
	buf = engine.AppendUint32(buf, uint32(h.Flag))
	buf = engine.AppendUint32(buf, uint32(h.PayloadLength))
	buf = engine.AppendUint64(buf, math.Float64bits(h.VirtualTime))
	buf = engine.AppendUint64(buf, math.Float64bits(h.RealTime))

	return buf
}

// Bytes serializes the header into a new HeaderSize byte slice.
func (h SampleHeader) Bytes(engine endian.EndianEngine) []byte {
	return h.AppendTo(make([]byte, 0, HeaderSize), engine)
}

// Layout returns the payload layout selected by PayloadLength.
func (h SampleHeader) Layout() (Layout, bool) {
	kind, ok := KindForPayloadLength(int(h.PayloadLength))
	if !ok {
		return Layout{}, false
	}

	return LayoutFor(kind)
}

// ParseSampleHeader parses a SampleHeader from the first HeaderSize bytes of data.
func ParseSampleHeader(data []byte, engine endian.EndianEngine) (SampleHeader, error) {
	if len(data) < HeaderSize {
		return SampleHeader{}, errs.ErrInvalidHeaderSize
	}

	var h SampleHeader
	if err := h.Parse(data[:HeaderSize], engine); err != nil {
		return SampleHeader{}, err
	}

	return h, nil
}
