package account

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/crypto"
)

const (
	// AddressLength is the length of an address in bytes: a compressed
	// secp256k1 public key.
	AddressLength = 33

	// DisplayPrefix is the prefix of the human-readable display form.
	DisplayPrefix = "scl"

	// displayBytes is how much of the fingerprint the display form keeps.
	displayBytes = 20
)

// Address identifies an account by its public key. Two addresses are the
// same account iff their key material is equal; the zero value is the
// system address that issues mining rewards.
type Address [AddressLength]byte

// SystemAddress is the reserved all-zero address. Reward transactions carry
// it as their sender and are never signature-checked.
var SystemAddress = Address{}

// IsSystem reports whether a is the reserved system address.
func (a Address) IsSystem() bool {
	return a == SystemAddress
}

// Bytes returns the address as a byte slice.
func (a Address) Bytes() []byte {
	return a[:]
}

// String returns the canonical hex form of the key material.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// Display returns the human-readable account form: a BLAKE3 fingerprint of
// the key material, truncated and prefixed. Cosmetic only; equality and
// verification always use the key material itself.
func (a Address) Display() string {
	if a.IsSystem() {
		return DisplayPrefix + "-system"
	}
	sum := crypto.Fingerprint(a[:])
	return DisplayPrefix + hex.EncodeToString(sum[len(sum)-displayBytes:])
}

// MarshalText implements encoding.TextMarshaler with the canonical hex form.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It only checks shape;
// whether the bytes are a usable curve point surfaces at verification time.
func (a *Address) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(strings.TrimPrefix(string(text), "0x"))
	if err != nil {
		return fmt.Errorf("invalid address encoding: %w", err)
	}
	if len(decoded) != AddressLength {
		return fmt.Errorf("invalid address length: expected %d bytes, got %d", AddressLength, len(decoded))
	}
	copy(a[:], decoded)
	return nil
}

// AddressFromBytes builds an Address from raw key material.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLength {
		return a, fmt.Errorf("invalid address length: expected %d bytes, got %d", AddressLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// AddressFromPublicKey derives the address of a public key.
func AddressFromPublicKey(pub *ecdsa.PublicKey) (Address, error) {
	if pub == nil || pub.X == nil {
		return Address{}, errors.New("public key is nil")
	}
	return AddressFromBytes(ethcrypto.CompressPubkey(pub))
}

// Account couples a private key with its address.
type Account struct {
	PrivateKey *ecdsa.PrivateKey
	Address    Address
}

// NewAccount generates a fresh secp256k1 key pair.
func NewAccount() (*Account, error) {
	privateKey, err := ethcrypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return NewAccountFromPrivateKey(privateKey)
}

// NewAccountFromPrivateKey builds an account around an existing key.
func NewAccountFromPrivateKey(privateKey *ecdsa.PrivateKey) (*Account, error) {
	if privateKey == nil {
		return nil, errors.New("private key is nil")
	}

	address, err := AddressFromPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, err
	}

	return &Account{
		PrivateKey: privateKey,
		Address:    address,
	}, nil
}

// ImportFromPrivateKeyHex rebuilds an account from a hex-encoded private key.
func ImportFromPrivateKeyHex(hexKey string) (*Account, error) {
	privateKey, err := ethcrypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, err
	}
	return NewAccountFromPrivateKey(privateKey)
}

// ExportPrivateKeyHex exports the private key as a hex string.
func (a *Account) ExportPrivateKeyHex() string {
	return hex.EncodeToString(ethcrypto.FromECDSA(a.PrivateKey))
}
