package fragments

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxKeyLength is the longest owner id or fragment id accepted.
const MaxKeyLength = 256

// IsValidKey reports whether s can be used as an owner id or fragment id.
// Both become a single path segment in blob backends, and a fragment id is
// followed by ".ext" in conversion URLs, so a key:
//   - is not empty
//   - is at most MaxKeyLength bytes
//   - does not contain "/", "\" or "."
//   - is valid UTF-8
//   - does not contain null bytes, control characters (< 0x20), DEL (0x7f), or whitespace
func IsValidKey(s string) bool {
	if s == "" || len(s) > MaxKeyLength {
		return false
	}

	if strings.ContainsAny(s, `/\.`) {
		return false
	}

	if !utf8.ValidString(s) {
		return false
	}

	for _, r := range s {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}
