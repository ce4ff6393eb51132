// Package endian provides the byte order engines used by erlport encoders and decoders.
//
// The external term format is always big-endian, so the etf package and the port
// framing use GetBigEndianEngine. The diagnostic trace file header is written with
// GetLittleEndianEngine.
//
// An EndianEngine combines binary.ByteOrder and binary.AppendByteOrder, so a caller
// can either read/put fixed-width fields in place or append them to a growing slice:
//
//	engine := endian.GetBigEndianEngine()
//	buf = engine.AppendUint32(buf, arity)
//	n := engine.Uint16(msg[1:3])
//
// All functions in this package are safe for concurrent use. The returned engines
// are immutable and stateless.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian (network order) engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}
