//go:build cgo && gozstd

package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/arloliu/erlport/errs"
	"github.com/valyala/gozstd"
)

const zstdLevel = 3

// Compress compresses the input data using the zstd C library.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(nil, data, zstdLevel), nil
}

// Decompress decodes a zstd frame into a buffer sized for rawSize bytes.
func (c ZstdCompressor) Decompress(data []byte, rawSize int) ([]byte, error) {
	if done, err := checkEmpty("zstd", data, rawSize); done {
		return []byte{}, err
	}

	zr := gozstd.NewReader(bytes.NewReader(data))
	defer zr.Release()

	// one byte past rawSize is enough to tell an oversized frame
	out := bytes.NewBuffer(make([]byte, 0, rawSize))
	if _, err := out.ReadFrom(io.LimitReader(zr, int64(rawSize)+1)); err != nil {
		return nil, fmt.Errorf("%w: zstd: %w", errs.ErrCorruptBody, err)
	}

	return checkSize("zstd", out.Bytes(), rawSize)
}
