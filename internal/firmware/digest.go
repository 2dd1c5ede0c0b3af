package firmware

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest returns the hex BLAKE3-256 digest of a payload
func Digest(payload []byte) string {
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// ShortDigest returns the first 12 hex characters of Digest, for display
func ShortDigest(payload []byte) string {
	return Digest(payload)[:12]
}
