package patch

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the hex SHA-256 digest of content. Whole-file operations
// use it as their optimistic concurrency token.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// FingerprintString fingerprints the UTF-8 bytes of s.
func FingerprintString(s string) string {
	return Fingerprint([]byte(s))
}

// FingerprintLines fingerprints the concatenation of lines, terminators included.
func FingerprintLines(lines []string) string {
	return FingerprintString(JoinLines(lines))
}
