package utils

import (
	"crypto/sha256"
	"fmt"
)

// URLHash content-addresses a canonical URL. It is the identity key
// duplicates are detected by, so input must already be canonicalized.
func URLHash(canonicalURL string) string {
	hash := sha256.Sum256([]byte(canonicalURL))
	return fmt.Sprintf("%x", hash)
}
