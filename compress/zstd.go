package compress

import "github.com/arloliu/erlport/format"

// ZstdCompressor compresses record bodies with Zstandard.
//
// The default build uses the pure-Go klauspost/compress implementation; building
// with cgo and the gozstd tag switches to the C library through valyala/gozstd.
// Both produce standard zstd frames, so traces are readable by either build.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a Zstandard codec.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}

func (c ZstdCompressor) Type() format.CompressionType {
	return format.CompressionZstd
}
