package badger

import (
	"encoding/binary"
	"fmt"
)

// Key prefixes for different data types
const (
	vectorRecordPrefix = "vecrec"
	vectorIndexPrefix  = "vecidx"
	documentPrefix     = "docrec"
)

// makeVectorKey generates a key for a vector entry by chunk id.
func makeVectorKey(chunkID string) []byte {
	return []byte(fmt.Sprintf("%s:%s", vectorRecordPrefix, chunkID))
}

// makeVectorIndexKey generates a composite key for the per-document index.
// Format: prefix:documentID:index
func makeVectorIndexKey(documentID string, index int) []byte {
	prefix := vectorIndexPrefix + ":" + documentID + ":"
	prefixBytes := []byte(prefix)
	totalSize := len(prefixBytes) + 8
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort follows chunk order
	binary.BigEndian.PutUint64(buf[offset:], uint64(index))
	return buf
}

// makePartialVectorIndexKey generates the prefix covering all index keys of
// one document.
func makePartialVectorIndexKey(documentID string) []byte {
	return []byte(vectorIndexPrefix + ":" + documentID + ":")
}

// makeDocumentKey generates a key for a document record by id.
func makeDocumentKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", documentPrefix, id))
}
