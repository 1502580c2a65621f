// Package rossfile reads and writes ROSS engine instrumentation logs.
//
// A log is a flat sequence of frames with no file header:
//
//	+-------------------------+--------------------------------+
//	| SampleHeader (24 bytes) | payload (PE 104, KP 44, LP 36) |
//	+-------------------------+--------------------------------+
//
// The header's payload_byte_length is the only record kind discriminant.
// Decode and Load build a table.Telemetry from a whole log; Decoder exposes
// the same frame reader one sample at a time. Inputs compressed with zstd,
// LZ4 or S2 are read with WithCompression, either naming the codec or
// passing format.CompressionAuto to detect it.
package rossfile
