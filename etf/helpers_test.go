package etf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// nodeRef is a NEW_REFERENCE_EXT sent by a node named nonode@nohost.
var nodeRef = []byte{
	114, 0, 3,
	100, 0, 13, 'n', 'o', 'n', 'o', 'd', 'e', '@', 'n', 'o', 'h', 'o', 's', 't',
	0,
	0, 0, 1, 134, 0, 0, 0, 0, 0, 0, 0, 0,
}

// message prepends the version byte to the given terms.
func message(terms ...[]byte) []byte {
	msg := []byte{131}
	for _, term := range terms {
		msg = append(msg, term...)
	}

	return msg
}

func mustDecoder(t *testing.T, terms ...[]byte) *Decoder {
	t.Helper()
	d, err := NewDecoder(message(terms...))
	require.NoError(t, err)

	return d
}

func smallBig(sign byte, digits ...byte) []byte {
	return append([]byte{110, byte(len(digits)), sign}, digits...)
}

func largeBig(sign byte, digits ...byte) []byte {
	n := len(digits)
	return append([]byte{111, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n), sign}, digits...)
}
