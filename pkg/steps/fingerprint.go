package steps

import (
	"crypto/sha1" //nolint:gosec // content digest for dedup, not a security boundary
	"encoding/hex"
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeText reduces s to the form used for duplicate detection: a single
// pair of wrapping quotes is stripped, literal \n and \" escapes are resolved,
// and all whitespace is removed. Cosmetic differences between revisions of the
// same tool output therefore normalize to the same string.
func NormalizeText(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = whitespaceRun.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Digest returns the hex SHA-1 of parts joined with a NUL separator.
func Digest(parts ...string) string {
	h := sha1.New() //nolint:gosec
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}
