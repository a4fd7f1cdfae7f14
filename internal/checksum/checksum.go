// Package checksum derives revision tags for stored records.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Match reports whether an If-Match style tag names revision. Surrounding
// quotes and a weak "W/" prefix are ignored; an empty tag always matches.
func Match(tag, revision string) bool {
	if tag == "" || tag == "*" {
		return true
	}
	if len(tag) > 2 && tag[:2] == "W/" {
		tag = tag[2:]
	}
	if len(tag) >= 2 && tag[0] == '"' && tag[len(tag)-1] == '"' {
		tag = tag[1 : len(tag)-1]
	}
	return tag == revision
}
