package compress

import (
	"fmt"

	"github.com/arloliu/erlport/errs"
	"github.com/arloliu/erlport/format"
	"github.com/klauspost/compress/s2"
)

// S2Compressor compresses record bodies with S2, a fast Snappy extension.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates an S2 codec.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

func (c S2Compressor) Type() format.CompressionType {
	return format.CompressionS2
}

// Compress compresses the input data using S2 compression.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress decodes an S2 block. The decoded length stored in the block must
// match rawSize before any output is allocated.
func (c S2Compressor) Decompress(data []byte, rawSize int) ([]byte, error) {
	if done, err := checkEmpty("s2", data, rawSize); done {
		return []byte{}, err
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("%w: s2: %w", errs.ErrCorruptBody, err)
	}
	if n != rawSize {
		return nil, fmt.Errorf("%w: s2: block holds %d bytes, expected %d", errs.ErrCorruptBody, n, rawSize)
	}

	out, err := s2.Decode(make([]byte, rawSize), data)
	if err != nil {
		return nil, fmt.Errorf("%w: s2: %w", errs.ErrCorruptBody, err)
	}

	return checkSize("s2", out, rawSize)
}
