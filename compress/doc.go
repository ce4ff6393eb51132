// Package compress provides the codecs used to store trace record bodies.
//
// Every record written by package trace names its codec in the header with a
// format.CompressionType, and records its raw length so a codec can size its
// output exactly:
//   - format.CompressionNone: bodies are stored as they are
//   - format.CompressionZstd: best ratio, for long captures
//   - format.CompressionS2: fast, moderate ratio
//   - format.CompressionLZ4: fastest decompression
//
// Port messages are small and often repeat the same atoms and references, so
// zstd and S2 usually shrink a busy trace several times over.
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionS2)
//	if err != nil {
//	    return err
//	}
//	body, err := codec.Compress(msg)
//	...
//	msg, err = codec.Decompress(body, len(msg))
//
// # Build Tags
//
// Zstandard is implemented with github.com/klauspost/compress/zstd by default.
// Building with cgo enabled and the gozstd tag uses github.com/valyala/gozstd
// instead:
//
//	go build -tags gozstd ./...
package compress
