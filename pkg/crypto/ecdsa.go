package crypto

import (
	"crypto/ecdsa"
	"errors"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the length of a signature produced by Sign: 64 bytes of
// R||S followed by one recovery byte.
const SignatureLength = 65

// Sign signs a message with a secp256k1 private key. The message is digested
// with SHA-256 first; the digest is what gets signed.
func Sign(privateKey *ecdsa.PrivateKey, message []byte) ([]byte, error) {
	if privateKey == nil {
		return nil, errors.New("private key is nil")
	}

	digest := Hash256(message)
	return ethcrypto.Sign(digest[:], privateKey)
}

// Verify reports whether signature is a valid secp256k1 signature of message
// under the given public key (compressed 33-byte or uncompressed 65-byte
// form). The message is digested with SHA-256, mirroring Sign. Malformed
// keys and signatures verify as false rather than erroring.
func Verify(publicKey, message, signature []byte) bool {
	if len(signature) < SignatureLength-1 {
		return false
	}

	digest := Hash256(message)
	// VerifySignature wants R||S without the recovery byte.
	return ethcrypto.VerifySignature(publicKey, digest[:], signature[:SignatureLength-1])
}
