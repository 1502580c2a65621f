package snapshot

import (
	"bytes"
	"fmt"
	"time"

	"github.com/arloliu/rossdash/endian"
	"github.com/arloliu/rossdash/errs"
	"github.com/arloliu/rossdash/format"
)

const (
	// HeaderSize is the fixed snapshot header length in bytes.
	HeaderSize = 32
	// Version is the snapshot layout version written by this package.
	Version = 1

	flagBigEndian = 0x1

	// maxBodyLength guards allocations driven by a corrupt header.
	maxBodyLength = 1 << 36
)

// magic is "RSNP" (0x52534E50), always stored in this byte order so the
// endianness flag can be read before the engine is known.
var magic = []byte("RSNP")

// Header is the fixed-size snapshot header.
//
//	0:4   magic "RSNP"
//	4     version
//	5     flags (bit 0: big-endian)
//	6     compression type
//	7     table count
//	8:16  source fingerprint
//	16:24 body length
//	24:32 creation time, unix nanoseconds
type Header struct {
	Version           uint8
	BigEndian         bool
	Compression       format.CompressionType
	TableCount        uint8
	SourceFingerprint uint64
	BodyLength        uint64
	CreatedAt         time.Time
}

// Engine returns the byte order the snapshot body was written with.
func (h Header) Engine() endian.EndianEngine {
	if h.BigEndian {
		return endian.GetBigEndianEngine()
	}

	return endian.GetLittleEndianEngine()
}

// Bytes serializes the header.
func (h Header) Bytes() []byte {
	engine := h.Engine()

	var flags uint8
	if h.BigEndian {
		flags |= flagBigEndian
	}

	b := make([]byte, 0, HeaderSize)
	b = append(b, magic...)
	b = append(b, h.Version, flags, byte(h.Compression), h.TableCount)
	b = engine.AppendUint64(b, h.SourceFingerprint)
	b = engine.AppendUint64(b, h.BodyLength)
	b = engine.AppendUint64(b, uint64(h.CreatedAt.UnixNano()))

	return b
}

// Parse parses the header from data, which must be exactly HeaderSize bytes.
func (h *Header) Parse(data []byte) error {
	if len(data) != HeaderSize {
		return errs.ErrInvalidHeaderSize
	}
	if !IsSnapshot(data) {
		return fmt.Errorf("%w: bad magic % x", errs.ErrInvalidSnapshot, data[:4])
	}

	h.Version = data[4]
	if h.Version != Version {
		return fmt.Errorf("%w: unsupported version %d", errs.ErrInvalidSnapshot, h.Version)
	}
	flags := data[5]
	if flags&^flagBigEndian != 0 {
		return fmt.Errorf("%w: unknown flags %#x", errs.ErrInvalidSnapshot, flags)
	}
	h.BigEndian = flags&flagBigEndian != 0
	h.Compression = format.CompressionType(data[6])
	h.TableCount = data[7]

	engine := h.Engine()
	h.SourceFingerprint = engine.Uint64(data[8:16])
	h.BodyLength = engine.Uint64(data[16:24])
	h.CreatedAt = time.Unix(0, int64(engine.Uint64(data[24:32]))).UTC()

	if h.BodyLength > maxBodyLength {
		return fmt.Errorf("%w: body length %d", errs.ErrInvalidSnapshot, h.BodyLength)
	}

	return nil
}

// IsSnapshot reports whether prefix starts with the snapshot magic.
func IsSnapshot(prefix []byte) bool {
	return bytes.HasPrefix(prefix, magic)
}
