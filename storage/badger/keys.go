package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	overflowPrefix     = "docovf"
	fallbackDocPrefix  = "fbdoc"
	fallbackConvPrefix = "fbconv"
	fallbackHashPrefix = "fbhash"
	fallbackCurrentKey = "fbcur"
	fallbackMarkerKey  = "fbauth"
)

// makeOverflowKey generates a key for an overflow content blob.
func makeOverflowKey(ref string) []byte {
	return []byte(fmt.Sprintf("%s:%s", overflowPrefix, ref))
}

// makeFallbackDocKey generates a positional key for a fallback document.
// Format: prefix:position. The position is written BigEndian so
// lexicographic iteration reproduces insertion order.
func makeFallbackDocKey(position int) []byte {
	return makePositionalKey(fallbackDocPrefix, position)
}

// makeFallbackConvKey generates a positional key for a fallback conversation.
func makeFallbackConvKey(position int) []byte {
	return makePositionalKey(fallbackConvPrefix, position)
}

// makeFallbackHashKey generates a key for a dedup hash entry.
func makeFallbackHashKey(hash string) []byte {
	return []byte(fmt.Sprintf("%s:%s", fallbackHashPrefix, hash))
}

func makePositionalKey(prefix string, position int) []byte {
	prefixBytes := []byte(prefix + ":")
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(position))
	return buf
}
