// Package encoding provides the columnar encoders and decoders behind rossdash snapshots.
//
// A telemetry column holds fixed-width primitives (uint32 counters, float32
// timings, float64 timestamps). RawEncoder writes them back to back in the
// chosen byte order and RawDecoder reads them back, either as an iterator,
// by index, or in bulk into a preallocated slice:
//
//	enc := encoding.NewRawEncoder[uint32](endian.GetLittleEndianEngine())
//	defer enc.Finish()
//	enc.WriteSlice(column)
//
//	dec := encoding.NewRawDecoder[uint32](endian.GetLittleEndianEngine())
//	for v := range dec.All(enc.Bytes(), enc.Len()) {
//		fmt.Println(v)
//	}
package encoding
