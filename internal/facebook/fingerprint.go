package facebook

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Fingerprint derives a fixed-width cache key from a request URL and its
// parameters. Every component is length-prefixed, so parameter order matters
// and no two distinct (url, params) pairs share an input.
func Fingerprint(rawURL string, params Params) string {
	h, _ := blake2b.New256(nil)
	writeField(h, rawURL)
	for _, p := range params {
		writeField(h, p.Key)
		writeField(h, p.Value)
		writeField(h, p.File)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(w interface{ Write([]byte) (int, error) }, s string) {
	var n [binary.MaxVarintLen64]byte
	w.Write(n[:binary.PutUvarint(n[:], uint64(len(s)))])
	w.Write([]byte(s))
}
