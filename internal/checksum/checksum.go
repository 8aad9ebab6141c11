// Package checksum computes content digests used to detect changed notes.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SumStrings digests a sequence of strings with a separator that cannot
// occur in field content, so ["ab","c"] and ["a","bc"] differ.
func SumStrings(parts ...string) string {
	return Sum([]byte(strings.Join(parts, "\x1f")))
}
