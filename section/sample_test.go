package section

import (
	"testing"

	"github.com/arloliu/rossdash/endian"
	"github.com/arloliu/rossdash/errs"
	"github.com/arloliu/rossdash/format"
	"github.com/stretchr/testify/require"
)

func TestSampleHeader_ParseBytes(t *testing.T) {
	for _, engine := range []endian.EndianEngine{endian.GetLittleEndianEngine(), endian.GetBigEndianEngine()} {
		t.Run(endian.Name(engine), func(t *testing.T) {
			original := SampleHeader{Flag: -7, PayloadLength: int32(KPSize), VirtualTime: 1.5, RealTime: 0.2}

			data := original.Bytes(engine)
			require.Len(t, data, HeaderSize)

			var parsed SampleHeader
			require.NoError(t, parsed.Parse(data, engine))
			require.Equal(t, original, parsed)

			layout, ok := parsed.Layout()
			require.True(t, ok)
			require.Equal(t, format.KindKP, layout.Kind)
		})
	}
}

func TestSampleHeader_LittleEndianBytes(t *testing.T) {
	h := SampleHeader{Flag: 1, PayloadLength: 36, VirtualTime: 0, RealTime: 0}
	data := h.Bytes(endian.GetLittleEndianEngine())

	require.Equal(t, []byte{1, 0, 0, 0, 36, 0, 0, 0}, data[:8])
	require.Equal(t, make([]byte, 16), data[8:])
}

func TestSampleHeader_InvalidSize(t *testing.T) {
	var h SampleHeader
	err := h.Parse([]byte{1, 2, 3}, endian.GetLittleEndianEngine())
	require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)

	_, err = ParseSampleHeader(make([]byte, HeaderSize-1), endian.GetLittleEndianEngine())
	require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)

	h, err = ParseSampleHeader(make([]byte, HeaderSize+10), endian.GetLittleEndianEngine())
	require.NoError(t, err)
	require.Equal(t, SampleHeader{}, h)

	_, ok := h.Layout()
	require.False(t, ok)
}

func TestSample_ParsePayload(t *testing.T) {
	engine := endian.GetLittleEndianEngine()
	rec := KPRecord{
		PEID: 3, KPID: 1, EventsProcessed: 10, EventsAbort: 0, EventsRolledBack: 2,
		TotalRollbacks: 1, SecondaryRollbacks: 0, NetworkSends: 5, NetworkReads: 4,
		TimeAheadGVT: 0.01, Efficiency: 0.9,
		VirtualTime: 1.5, RealTime: 0.2,
	}
	sample := rec.Sample()
	header := sample.Header()
	require.Equal(t, int32(KPSize), header.PayloadLength)

	payload := sample.AppendPayload(nil, engine)
	require.Len(t, payload, KPSize)

	var decoded Sample
	require.NoError(t, decoded.ParsePayload(header, KPLayout, payload, engine))
	require.Equal(t, sample, decoded)

	got, err := decoded.KP()
	require.NoError(t, err)
	require.Equal(t, rec, got)

	_, err = decoded.PE()
	require.ErrorIs(t, err, errs.ErrUnknownRecordKind)

	err = decoded.ParsePayload(header, KPLayout, payload[:KPSize-1], engine)
	require.ErrorIs(t, err, errs.ErrInvalidPayloadSize)
}

func TestSample_ReusesBuffers(t *testing.T) {
	engine := endian.GetBigEndianEngine()
	pe := PERecord{PEID: 9, EventsProcessed: 100, LZ4Time: 3.25}.Sample()
	lp := LPRecord{PEID: 1, KPID: 2, LPID: 3, Efficiency: -1}.Sample()

	var s Sample
	require.NoError(t, s.ParsePayload(pe.Header(), PELayout, pe.AppendPayload(nil, engine), engine))
	require.Len(t, s.Uints, 13)

	require.NoError(t, s.ParsePayload(lp.Header(), LPLayout, lp.AppendPayload(nil, engine), engine))
	require.Len(t, s.Uints, 8)
	require.Len(t, s.Floats, 1)

	rec, err := s.LP()
	require.NoError(t, err)
	require.Equal(t, uint32(3), rec.LPID)
	require.Equal(t, float32(-1), rec.Efficiency)
}

func TestRecords_MatchLayouts(t *testing.T) {
	pe := PERecord{}.Sample()
	kp := KPRecord{}.Sample()
	lp := LPRecord{}.Sample()

	require.NoError(t, pe.Validate())
	require.NoError(t, kp.Validate())
	require.NoError(t, lp.Validate())

	require.Len(t, pe.AppendTo(nil, endian.GetLittleEndianEngine()), HeaderSize+PESize)
	require.Len(t, kp.AppendTo(nil, endian.GetLittleEndianEngine()), HeaderSize+KPSize)
	require.Len(t, lp.AppendTo(nil, endian.GetLittleEndianEngine()), HeaderSize+LPSize)
}

func TestRecords_PEFieldOrder(t *testing.T) {
	rec := PERecord{
		PEID: 1, EventsProcessed: 2, EventsAborted: 3, EventsRolledBack: 4, TotalRollbacks: 5,
		SecondaryRollbacks: 6, FossilCollectionAttempts: 7, PQQueueSize: 8, NetworkSends: 9,
		NetworkReads: 10, NumberGVT: 11, PEEventTies: 12, AllReduce: 13,
		Efficiency: 1, NetworkReadTime: 2, NetworkOtherTime: 3, GVTTime: 4, FossilCollectTime: 5,
		EventAbortTime: 6, EventProcessTime: 7, PQTime: 8, RollbackTime: 9, CancelQTime: 10,
		AVLTime: 11, BuddyTime: 12, LZ4Time: 13,
	}
	s := rec.Sample()

	for i := range s.Uints {
		require.Equal(t, uint32(i+1), s.Uints[i], PELayout.Uints[i])
	}
	for i := range s.Floats {
		require.Equal(t, float32(i+1), s.Floats[i], PELayout.Floats[i])
	}

	back, err := s.PE()
	require.NoError(t, err)
	require.Equal(t, rec, back)
}

func TestSample_ValidateAndClone(t *testing.T) {
	s := Sample{Kind: format.KindLP, Uints: []uint32{1}, Floats: []float32{1}}
	require.ErrorIs(t, s.Validate(), errs.ErrInvalidPayloadSize)

	s = Sample{Kind: format.RecordKind(0)}
	require.ErrorIs(t, s.Validate(), errs.ErrUnknownRecordKind)

	orig := LPRecord{LPID: 4}.Sample()
	c := orig.Clone()
	c.Uints[2] = 99
	require.Equal(t, uint32(4), orig.Uints[2])
}
