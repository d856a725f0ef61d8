// Package checksum identifies document versions.
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

// Matches reports whether expected names the version of data. An empty
// expectation always matches; surrounding ETag quotes are ignored.
func Matches(data []byte, expected string) bool {
	expected = strings.Trim(strings.TrimSpace(expected), `"`)
	return expected == "" || expected == Sum(data)
}
