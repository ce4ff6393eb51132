package trace

import (
	"time"

	"github.com/arloliu/erlport/etf"
	"github.com/arloliu/erlport/format"
)

// Record is one traced message, restored to its raw form.
type Record struct {
	Direction   Direction
	Compression format.CompressionType
	Time        time.Time
	// StoredSize is the size of the body as it sits in the file.
	StoredSize int
	// Message is the framed message without its length prefix.
	Message []byte
}

// Decoder opens the message with an etf.Decoder.
//
// Rejected messages are traced as they arrived and may not be valid terms, in
// which case the error from etf.NewDecoder is returned.
func (r Record) Decoder() (*etf.Decoder, error) {
	return etf.NewDecoder(r.Message)
}
