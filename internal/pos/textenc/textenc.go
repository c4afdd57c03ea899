// Package textenc converts hash input to the legacy single-byte Turkish
// encoding some gateways require. Hashing the UTF-8 bytes instead produces a
// signature the bank silently rejects as a generic authentication failure, so
// the conversion step is load-bearing.
package textenc

import (
	"golang.org/x/text/encoding/charmap"
)

// ToISO8859_9 converts s to ISO-8859-9 (Latin-5) bytes. Runes outside the
// charset fall back to the UTF-8 bytes of the original string, matching the
// transliterate-or-pass-through behaviour the gateways tolerate.
func ToISO8859_9(s string) []byte {
	out, err := charmap.ISO8859_9.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return out
}
