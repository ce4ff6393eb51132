package compress

import "github.com/arloliu/erlport/format"

// NoOpCompressor stores record bodies as they are.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a codec that leaves data untouched.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

func (c NoOpCompressor) Type() format.CompressionType {
	return format.CompressionNone
}

// Compress returns data itself; the result shares memory with the input.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data itself after checking its length against rawSize.
func (c NoOpCompressor) Decompress(data []byte, rawSize int) ([]byte, error) {
	if done, err := checkEmpty("none", data, rawSize); done {
		return []byte{}, err
	}

	return checkSize("none", data, rawSize)
}
