//go:build !cgo || !gozstd

package compress

import (
	"fmt"
	"sync"

	"github.com/arloliu/erlport/errs"
	"github.com/klauspost/compress/zstd"
)

// zstdDecoderPool keeps warmed-up decoders; DecodeAll on a pooled decoder does
// not allocate after the first few calls.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
			zstd.WithDecoderMaxMemory(MaxDecodedSize),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}

		return decoder
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderCRC(false),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
		}

		return encoder
	},
}

// Compress compresses the input data as a single zstd frame.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	encoder, _ := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(encoder)

	return encoder.EncodeAll(data, nil), nil
}

// Decompress decodes a zstd frame into a buffer sized for rawSize bytes.
func (c ZstdCompressor) Decompress(data []byte, rawSize int) ([]byte, error) {
	if done, err := checkEmpty("zstd", data, rawSize); done {
		return []byte{}, err
	}

	decoder, _ := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)

	out, err := decoder.DecodeAll(data, make([]byte, 0, rawSize))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", errs.ErrCorruptBody, err)
	}

	return checkSize("zstd", out, rawSize)
}
