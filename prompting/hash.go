package prompting

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// HashStrings derives the integrity fingerprint for an ordered sequence of
// strings: SHA-256 over a length-prefixed concatenation, hex encoded. Each
// element is written as its byte length (big-endian uint64) followed by its
// bytes, so the encoding is unambiguous: ["a","bc"] and ["ab","c"] digest
// differently, and elements may contain any byte, separators included.
//
// An empty (or nil) sequence fingerprints to the empty string, not to the
// digest of zero bytes. The result is deterministic across processes and
// platforms, which makes it usable both as a tamper check and as a dedup key
// for identical prompt content.
func HashStrings(seq []string) string {
	if len(seq) == 0 {
		return ""
	}
	h := sha256.New()
	var prefix [8]byte
	for _, s := range seq {
		binary.BigEndian.PutUint64(prefix[:], uint64(len(s)))
		h.Write(prefix[:])
		h.Write([]byte(s))
	}
	return hex.EncodeToString(h.Sum(nil))
}
