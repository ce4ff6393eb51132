package compress

import (
	"fmt"
	"sync"

	"github.com/arloliu/erlport/errs"
	"github.com/arloliu/erlport/format"
	"github.com/pierrec/lz4/v4"
)

// lz4CompressorPool pools lz4.Compressor instances, which keep a hash table
// between calls.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Compressor compresses record bodies as raw LZ4 blocks.
//
// A raw block does not record its decoded size, so Decompress relies on the
// raw length from the record header to size the output.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates an LZ4 codec.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

func (c LZ4Compressor) Type() format.CompressionType {
	return format.CompressionLZ4
}

// Compress compresses the input data as one LZ4 block.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// Decompress decodes an LZ4 block into a buffer of exactly rawSize bytes.
func (c LZ4Compressor) Decompress(data []byte, rawSize int) ([]byte, error) {
	if done, err := checkEmpty("lz4", data, rawSize); done {
		return []byte{}, err
	}

	buf := make([]byte, rawSize)
	n, err := lz4.UncompressBlock(data, buf)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %w", errs.ErrCorruptBody, err)
	}

	return checkSize("lz4", buf[:n], rawSize)
}
