// Package endian provides byte order utilities for the ROSS log decoder and
// the snapshot format.
//
// ROSS writes its instrumentation structs with the host's native byte order.
// Every host the engine has shipped on is little-endian, so the decoder defaults
// to little-endian and lets callers opt into big-endian or native order when a
// log was produced elsewhere:
//
//	engine, err := endian.ParseEngine("native")
//	if err != nil {
//		return err
//	}
//	tel, _, err := rossfile.Load(path, rossfile.WithByteOrder(engine))
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// The returned EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"fmt"
	"strings"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface.
//
// It is satisfied by binary.LittleEndian and binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	// 0x0100 is 256. A little-endian host stores the low byte (0x00) first.
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

func IsNativeBigEndian() bool {
	return CheckEndianness() == binary.BigEndian
}

// CompareNativeEndian reports whether engine matches the host byte order.
func CompareNativeEndian(engine EndianEngine) bool {
	return engine == CheckEndianness()
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// GetNativeEngine returns the engine matching the host byte order.
func GetNativeEngine() EndianEngine {
	if IsNativeBigEndian() {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// Name returns "little" or "big" for the given engine.
func Name(engine EndianEngine) string {
	if engine == binary.BigEndian {
		return "big"
	}

	return "little"
}

// ParseEngine maps a byte order name to an engine.
//
// Accepted names (case-insensitive): "little", "le", "big", "be", "native".
// An empty name selects little-endian.
func ParseEngine(name string) (EndianEngine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "little", "le", "little-endian":
		return GetLittleEndianEngine(), nil
	case "big", "be", "big-endian":
		return GetBigEndianEngine(), nil
	case "native", "host":
		return GetNativeEngine(), nil
	default:
		return nil, fmt.Errorf("unknown byte order %q", name)
	}
}
