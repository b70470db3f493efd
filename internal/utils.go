package internal

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// IsDigits reports whether s is non-empty and consists only of digits.
// Page numbers left behind by converters look like this.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// NormalizeSpace collapses runs of whitespace into single spaces and trims the result
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// HashKey returns a stable hex digest over the given parts
func HashKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
