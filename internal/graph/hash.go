package graph

import (
	"encoding/binary"

	"lukechampine.com/blake3"
)

// ComputeID is the structural hasher (spec §4.1): a 32-byte BLAKE3 digest
// fed, in order, the kind's fixed tag, the kind's payload, the snippet
// bytes, then each child's id. Composite kinds pass a nil payload — their
// head symbol is itself children[0], so it is already covered by the
// child-id chain.
//
// Two nodes built from identical (kind, snippet, payload, child ids) MUST
// hash identically; any difference in any of those MUST change the id
// (spec invariant 1, §8).
func ComputeID(kind Kind, snippet string, payload []byte, children []*Node) ID {
	h := blake3.New()
	_, _ = h.Write([]byte(kind.tag()))
	_, _ = h.Write(payload)
	_, _ = h.Write([]byte(snippet))
	for _, c := range children {
		_, _ = h.Write(c.ID[:])
	}
	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// IntPayload encodes an integer literal's value as 8 little-endian bytes.
func IntPayload(n int64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(n))
	return buf
}

// TextPayload returns the raw bytes of a string literal's decoded value.
func TextPayload(s string) []byte {
	return []byte(s)
}

// SymbolPayload returns the raw bytes of a symbol's name.
func SymbolPayload(name string) []byte {
	return []byte(name)
}
