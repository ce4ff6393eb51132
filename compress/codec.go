package compress

import (
	"fmt"

	"github.com/arloliu/erlport/errs"
	"github.com/arloliu/erlport/format"
)

// Codec compresses and restores trace record bodies.
//
// Implementations are stateless values and safe for concurrent use.
type Codec interface {
	// Type returns the identifier stored in the record header.
	Type() format.CompressionType

	// Compress returns the compressed form of data. Empty input yields an
	// empty result. The input slice is not modified.
	Compress(data []byte) ([]byte, error)

	// Decompress restores data that was rawSize bytes long before compression.
	//
	// Returns errs.ErrCorruptBody when the output does not have exactly rawSize
	// bytes or the input cannot be decoded.
	Decompress(data []byte, rawSize int) ([]byte, error)
}

// MaxDecodedSize bounds the raw size Decompress accepts and the memory a
// decoder may use for one body.
const MaxDecodedSize = 64 << 20

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec returns the shared built-in codec for compressionType.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: %s", errs.ErrInvalidCompression, compressionType)
}

// checkEmpty rejects raw sizes outside [0, MaxDecodedSize] and handles bodies
// of empty messages, which are stored with no bytes.
func checkEmpty(name string, data []byte, rawSize int) (done bool, err error) {
	if rawSize < 0 || rawSize > MaxDecodedSize {
		return true, fmt.Errorf("%w: %s: raw size %d not in [0,%d]", errs.ErrCorruptBody, name, rawSize, MaxDecodedSize)
	}
	if len(data) == 0 {
		if rawSize != 0 {
			return true, fmt.Errorf("%w: %s: empty body for %d raw bytes", errs.ErrCorruptBody, name, rawSize)
		}

		return true, nil
	}

	return false, nil
}

func checkSize(name string, out []byte, rawSize int) ([]byte, error) {
	if len(out) != rawSize {
		return nil, fmt.Errorf("%w: %s: restored %d bytes, expected %d", errs.ErrCorruptBody, name, len(out), rawSize)
	}

	return out, nil
}
