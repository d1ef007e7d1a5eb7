package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Hash256 computes the SHA-256 digest of data.
func Hash256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// HashHex computes the SHA-256 digest of data and returns it hex-encoded.
// Block hashes and the proof-of-work predicate operate on this form.
func HashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Fingerprint computes the BLAKE3 digest of data. Used for short display
// identifiers, never for chain hashing or signatures.
func Fingerprint(data []byte) []byte {
	hasher := blake3.New()
	hasher.Write(data)
	return hasher.Sum(nil)
}
