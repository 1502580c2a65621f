// Package section defines the binary layout of a ROSS engine instrumentation log.
//
// A log is a flat stream of (header, payload) pairs with no file header, no
// trailer and no checksum:
//
//	┌──────────────────────────────────────────────────────┐
//	│ SampleHeader (24 bytes)                              │
//	│  - flag (int32, reserved)                            │
//	│  - payload_byte_length (int32)                       │
//	│  - virtual_time (float64)                            │
//	│  - real_time (float64)                               │
//	├──────────────────────────────────────────────────────┤
//	│ Payload (payload_byte_length bytes)                  │
//	│  - PE: 13 × uint32, 13 × float32  (104 bytes)        │
//	│  - KP:  9 × uint32,  2 × float32  ( 44 bytes)        │
//	│  - LP:  8 × uint32,  1 × float32  ( 36 bytes)        │
//	├──────────────────────────────────────────────────────┤
//	│ SampleHeader ...                                     │
//	└──────────────────────────────────────────────────────┘
//
// There is no explicit record tag. The payload length alone selects the
// layout, so the three payload sizes must stay pairwise distinct. Sizes are
// computed from the field lists below; the package refuses to initialize if a
// layout edit ever makes two of them collide.
//
// Every field is fixed width and packed without padding. The byte order is a
// parameter (an endian.EndianEngine) rather than the host's native order.
package section
