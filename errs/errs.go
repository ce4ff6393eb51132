// Package errs defines the sentinel errors returned by erlport packages.
//
// Errors are wrapped with context by the packages that return them, so callers
// should compare with errors.Is rather than ==.
package errs

import "errors"

// Term codec errors.
var (
	// ErrInvalidInput is returned for an empty message, a message that does not
	// start with the version marker, or an opaque value built from an empty span.
	ErrInvalidInput = errors.New("etf: invalid input")
	// ErrOutOfRange is returned when fewer bytes remain than a field declares.
	ErrOutOfRange = errors.New("etf: out of buffer range")
	// ErrInvalidOperation is returned when the next tag does not match the requested read.
	ErrInvalidOperation = errors.New("etf: invalid operation")
	// ErrInvalidLength is returned for zero or oversized string and atom lengths.
	ErrInvalidLength = errors.New("etf: invalid length")
	// ErrCast is returned when a decoded number does not fit the requested type.
	ErrCast = errors.New("etf: cast error")
	// ErrOverflow is returned when a bignum exceeds the target range or a buffer
	// cannot grow any further.
	ErrOverflow = errors.New("etf: overflow")
)

// Port transport and dispatch errors.
var (
	ErrInvalidPacketSize = errors.New("port: packet size must be 1, 2 or 4")
	ErrEmptyMessage      = errors.New("port: empty message")
	ErrMessageTooLarge   = errors.New("port: message too large")
	ErrUnknownCommand    = errors.New("port: unknown command")
	// ErrStop is returned by a handler to end the serve loop without error.
	ErrStop = errors.New("port: stop")
)

// Trace file errors.
var (
	ErrInvalidTraceRecord = errors.New("trace: invalid record")
	ErrChecksumMismatch   = errors.New("trace: checksum mismatch")
	ErrInvalidCompression = errors.New("trace: invalid compression type")
	// ErrCorruptBody is returned when a record body does not decompress to its
	// recorded raw length.
	ErrCorruptBody = errors.New("trace: corrupt record body")
)
