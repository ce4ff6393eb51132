package trace

import (
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/erlport/compress"
	"github.com/arloliu/erlport/errs"
	"github.com/arloliu/erlport/internal/hash"
)

// Reader reads records written by a Writer, in order.
//
// Note: The Reader is NOT thread-safe.
type Reader struct {
	r   io.Reader
	hdr [HeaderSize]byte
}

// NewReader creates a Reader on r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next reads the next record. It returns io.EOF when r ends cleanly between
// records and errs.ErrInvalidTraceRecord when it ends inside one.
func (r *Reader) Next() (Record, error) {
	if _, err := io.ReadFull(r.r, r.hdr[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, fmt.Errorf("%w: truncated header", errs.ErrInvalidTraceRecord)
		}

		return Record{}, err
	}

	var hdr Header
	if err := hdr.Parse(r.hdr[:]); err != nil {
		return Record{}, err
	}

	codec, err := compress.GetCodec(hdr.Compression)
	if err != nil {
		return Record{}, err
	}

	body := make([]byte, hdr.StoredSize)
	if _, err := io.ReadFull(r.r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Record{}, fmt.Errorf("%w: truncated body, want %d bytes", errs.ErrInvalidTraceRecord, hdr.StoredSize)
		}

		return Record{}, err
	}

	msg, err := codec.Decompress(body, int(hdr.RawSize))
	if err != nil {
		return Record{}, err
	}
	if sum := hash.Sum(msg); sum != hdr.Checksum {
		return Record{}, fmt.Errorf("%w: record has %016x, header says %016x", errs.ErrChecksumMismatch, sum, hdr.Checksum)
	}

	return Record{
		Direction:   hdr.Direction,
		Compression: hdr.Compression,
		Time:        hdr.Time(),
		StoredSize:  int(hdr.StoredSize),
		Message:     msg,
	}, nil
}

// ReadAll reads records until io.EOF.
func ReadAll(r io.Reader) ([]Record, error) {
	tr := NewReader(r)

	var records []Record
	for {
		rec, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}
