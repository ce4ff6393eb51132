// Package etf decodes and encodes the Erlang External Term Format as spoken by
// an Erlang port.
//
// A message is a version byte (131) followed by one tag-prefixed term. The
// package covers the term shapes a port protocol needs: tuples, integers,
// bignums, floats, atoms, strings, lists, binaries and references. Maps, pids,
// funs and compressed terms are not supported.
//
// # Decoding
//
// A Decoder takes a private copy of one complete message and reads it term by
// term. Every read consumes exactly one term and advances the cursor only on
// success; on failure the cursor stays where it was, so Unread can be used to
// log the remaining bytes. A message that failed to decode must be discarded.
//
//	dec, err := etf.NewDecoder(msg)
//	if err != nil {
//	    return err
//	}
//	arity, err := dec.ReadTupleHeader()
//	cmd, err := etf.ReadNumber[int32](dec)
//	ref, err := dec.ReadReference()
//
// ReadNumber is generic over the target type and applies the width and sign
// rules of the wire tag it finds: a 4-byte INTEGER_EXT cannot be read into an
// 8- or 16-bit type, a NEW_FLOAT_EXT needs an 8-byte type, and a negative
// bignum cannot be read into an unsigned type.
//
// # Encoding
//
// An Encoder appends terms to a pooled buffer that starts with the version byte.
// Write methods return the encoder so a reply can be built in one expression:
//
//	enc := etf.NewEncoder()
//	defer enc.Release()
//	enc.WriteTupleHeader(4).
//	    WriteAtom("command1").
//	    WriteInt(1).
//	    WriteReference(ref).
//	    WriteTupleHeader(2).
//	    WriteInt(0).
//	    WriteUnicode("Unicode String")
//	reply, err := enc.Finish()
//
// The first failing write is remembered and turns every later write into a no-op;
// Finish and Err report it. The encoder emits a fixed canonical subset: tuples
// are always LARGE_TUPLE_EXT, numbers are INTEGER_EXT or NEW_FLOAT_EXT, and
// strings are proper lists of integers rather than STRING_EXT.
//
// # Opaque Values
//
// Binary and Reference hold a private copy of the complete encoded term they were
// decoded from and can only be compared, hashed or written back. Binary keeps the
// 5-byte tag and length header in front of its content (see BinaryHeaderSize);
// callers that need the content slice it off themselves.
//
// # Thread Safety
//
// Decoder and Encoder are not safe for concurrent use. Distinct instances share
// no state and may be used from different goroutines.
package etf
