package badger

import (
	"bytes"
	"encoding/binary"
)

// Key layout within one index directory:
//
//	<collection>:seq        sequence lease for insertion ordinals
//	<collection>:doc:<ord>  one document, ord BigEndian uint64
//
// BigEndian ordinals make lexicographic key order equal insertion
// order, which is what gives queries their deterministic tie-break.

func makeSequenceKey(collection string) []byte {
	return []byte(collection + ":seq")
}

func makeDocumentPrefix(collection string) []byte {
	return []byte(collection + ":doc:")
}

func makeDocumentKey(collection string, ord uint64) []byte {
	prefix := makeDocumentPrefix(collection)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], ord)
	return buf
}

// documentOrd extracts the insertion ordinal from a document key.
func documentOrd(collection string, key []byte) (uint64, bool) {
	prefix := makeDocumentPrefix(collection)
	if !bytes.HasPrefix(key, prefix) || len(key) != len(prefix)+8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(key[len(prefix):]), true
}
