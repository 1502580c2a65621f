package format

import (
	"fmt"
	"strings"
)

type (
	// RecordKind identifies one of the three ROSS engine sample shapes.
	RecordKind uint8
	// TimeBasis selects which header timestamp a time range applies to.
	TimeBasis uint8
	// ColumnType is the fixed-width primitive stored in a column.
	ColumnType uint8
	// CompressionType identifies a block or stream compression codec.
	CompressionType uint8
	// SkipPolicy decides what the decoder does with an unrecognized payload length.
	SkipPolicy uint8
)

const (
	KindPE RecordKind = 0x1 // KindPE is a processing element sample.
	KindKP RecordKind = 0x2 // KindKP is a kernel process sample.
	KindLP RecordKind = 0x3 // KindLP is a logical process sample.
)

// RecordKinds lists every record kind in file-format order.
var RecordKinds = []RecordKind{KindPE, KindKP, KindLP}

const (
	VirtualTime TimeBasis = 0x0 // VirtualTime is the simulation clock, the default basis.
	RealTime    TimeBasis = 0x1 // RealTime is the wall clock.
)

const (
	TypeInt32   ColumnType = 0x1
	TypeUint32  ColumnType = 0x2
	TypeFloat32 ColumnType = 0x3
	TypeFloat64 ColumnType = 0x4
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.

	// CompressionAuto asks a reader to detect the compression from the
	// stream's leading bytes. It never appears in written data.
	CompressionAuto CompressionType = 0xff
)

const (
	// SkipNone treats an unrecognized payload length as fatal.
	SkipNone SkipPolicy = 0x0
	// SkipDeclared discards payload_byte_length bytes and continues with the next header.
	SkipDeclared SkipPolicy = 0x1
)

func (k RecordKind) String() string {
	switch k {
	case KindPE:
		return "pe"
	case KindKP:
		return "kp"
	case KindLP:
		return "lp"
	default:
		return "unknown"
	}
}

// ParseRecordKind accepts "pe", "kp" or "lp" in any case.
func ParseRecordKind(s string) (RecordKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pe":
		return KindPE, nil
	case "kp":
		return KindKP, nil
	case "lp":
		return KindLP, nil
	default:
		return 0, fmt.Errorf("unknown record kind %q", s)
	}
}

// Column returns the name of the table column holding this time basis.
func (b TimeBasis) Column() string {
	if b == RealTime {
		return "real_time"
	}

	return "virtual_time"
}

func (b TimeBasis) String() string {
	return b.Column()
}

// ParseTimeBasis accepts the column names ("virtual_time", "real_time") and
// the short forms "virtual" and "real". An empty string selects VirtualTime.
func ParseTimeBasis(s string) (TimeBasis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "virtual", "virtual_time", "vt":
		return VirtualTime, nil
	case "real", "real_time", "rt":
		return RealTime, nil
	default:
		return 0, fmt.Errorf("unknown time basis %q", s)
	}
}

// Size returns the width in bytes of a value of this type.
func (t ColumnType) Size() int {
	switch t {
	case TypeInt32, TypeUint32, TypeFloat32:
		return 4
	case TypeFloat64:
		return 8
	default:
		return 0
	}
}

func (t ColumnType) String() string {
	switch t {
	case TypeInt32:
		return "int32"
	case TypeUint32:
		return "uint32"
	case TypeFloat32:
		return "float32"
	case TypeFloat64:
		return "float64"
	default:
		return "unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionAuto:
		return "Auto"
	default:
		return "Unknown"
	}
}

// ParseCompressionType accepts "none", "zstd", "s2", "lz4" or "auto" in any case.
func ParseCompressionType(s string) (CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	case "auto":
		return CompressionAuto, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

func (p SkipPolicy) String() string {
	switch p {
	case SkipNone:
		return "none"
	case SkipDeclared:
		return "declared"
	default:
		return "unknown"
	}
}
