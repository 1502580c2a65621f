// Package snapshot stores a decoded table.Telemetry as a compact columnar file.
//
// Decoding a large ROSS log is dominated by per-frame work; a snapshot keeps
// each column contiguous, so loading it is a handful of block decompressions.
//
// Layout:
//
//	+---------------------+
//	| Header (32 bytes)   |
//	+---------------------+
//	| table: kind u8      |
//	|        rows u32     |
//	|        columns u16  |
//	|   column: id u64    |  xxHash64 of the column name
//	|           type u8   |
//	|           len u32   |
//	|           payload   |  compressed raw fixed-width values
//	|   ...               |
//	| ...                 |
//	+---------------------+
//	| checksum u64        |  xxHash64 of the body
//	+---------------------+
package snapshot
