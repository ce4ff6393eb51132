// Package trace records port traffic to an append-only file for offline
// inspection.
//
// Each record is a HeaderSize-byte little-endian header followed by the body:
//
//	magic(2) | direction(1) | compression(1) | timestamp(8) | raw size(4) | stored size(4) | xxhash64(8)
//
// The body is the message compressed with the codec named in the header. The
// checksum covers the raw message, so a Reader detects both corruption and a
// codec mismatch.
//
// # Usage
//
//	w, err := trace.NewWriter(file, trace.WithCompression(format.CompressionS2))
//	...
//	err = w.Write(trace.DirectionIn, msg)
//
//	r := trace.NewReader(file)
//	for {
//	    rec, err := r.Next()
//	    if errors.Is(err, io.EOF) {
//	        break
//	    }
//	    ...
//	    dec, err := rec.Decoder()
//	}
package trace
