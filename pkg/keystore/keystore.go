package keystore

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/pbkdf2"

	"github.com/DVSJagadeesh/Cryptographic-Solutions-for-Supply-Chain-Security/pkg/account"
)

const (
	kdfRounds = 4096
	kdfKeyLen = 32
)

// KeyStore manages encrypted key files in a directory. Files use PBKDF2 key
// derivation, AES-128-CTR encryption and a SHA-256 MAC, serialized as JSON.
type KeyStore struct {
	keyDir string
}

type encryptedKey struct {
	Address   string       `json:"address"`
	Crypto    cryptoParams `json:"crypto"`
	ID        string       `json:"id"`
	Version   int          `json:"version"`
	Timestamp int64        `json:"timestamp"`
}

type cryptoParams struct {
	Cipher       string       `json:"cipher"`
	CipherText   string       `json:"ciphertext"`
	CipherParams cipherParams `json:"cipherparams"`
	KDF          string       `json:"kdf"`
	KDFParams    kdfParams    `json:"kdfparams"`
	MAC          string       `json:"mac"`
}

type cipherParams struct {
	IV string `json:"iv"`
}

type kdfParams struct {
	DKLen int    `json:"dklen"`
	C     int    `json:"c"`
	PRF   string `json:"prf"`
	Salt  string `json:"salt"`
}

// NewKeyStore creates a keystore rooted at keyDir.
func NewKeyStore(keyDir string) *KeyStore {
	return &KeyStore{
		keyDir: keyDir,
	}
}

// StoreKey encrypts privateKey under password and writes it to a new key
// file, returning the file path.
func (ks *KeyStore) StoreKey(privateKey *ecdsa.PrivateKey, password string) (string, error) {
	if privateKey == nil {
		return "", errors.New("private key is nil")
	}

	if err := os.MkdirAll(ks.keyDir, 0700); err != nil {
		return "", err
	}

	address, err := account.AddressFromPublicKey(&privateKey.PublicKey)
	if err != nil {
		return "", err
	}

	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	derivedKey := pbkdf2.Key([]byte(password), salt, kdfRounds, kdfKeyLen, sha256.New)

	privateKeyBytes := ethcrypto.FromECDSA(privateKey)
	block, err := aes.NewCipher(derivedKey[:16])
	if err != nil {
		return "", err
	}

	cipherText := make([]byte, len(privateKeyBytes))
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(cipherText, privateKeyBytes)

	mac := sha256.Sum256(append(derivedKey[16:32], cipherText...))

	key := encryptedKey{
		Address: address.String(),
		Crypto: cryptoParams{
			Cipher:     "aes-128-ctr",
			CipherText: hex.EncodeToString(cipherText),
			CipherParams: cipherParams{
				IV: hex.EncodeToString(iv),
			},
			KDF: "pbkdf2",
			KDFParams: kdfParams{
				DKLen: kdfKeyLen,
				C:     kdfRounds,
				PRF:   "hmac-sha256",
				Salt:  hex.EncodeToString(salt),
			},
			MAC: hex.EncodeToString(mac[:]),
		},
		ID:        generateUUID(),
		Version:   1,
		Timestamp: time.Now().Unix(),
	}

	data, err := json.MarshalIndent(key, "", "  ")
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("UTC--%s--%s",
		time.Now().UTC().Format("2006-01-02T15-04-05.000000000Z"),
		strings.TrimPrefix(address.Display(), account.DisplayPrefix))

	keyPath := filepath.Join(ks.keyDir, filename)
	if err := os.WriteFile(keyPath, data, 0600); err != nil {
		return "", err
	}

	return keyPath, nil
}

// LoadKey decrypts the key file at keyPath with password.
func (ks *KeyStore) LoadKey(keyPath, password string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}

	var key encryptedKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("malformed key file: %w", err)
	}

	salt, err := hex.DecodeString(key.Crypto.KDFParams.Salt)
	if err != nil {
		return nil, fmt.Errorf("malformed salt: %w", err)
	}

	iv, err := hex.DecodeString(key.Crypto.CipherParams.IV)
	if err != nil {
		return nil, fmt.Errorf("malformed iv: %w", err)
	}

	cipherText, err := hex.DecodeString(key.Crypto.CipherText)
	if err != nil {
		return nil, fmt.Errorf("malformed ciphertext: %w", err)
	}

	mac, err := hex.DecodeString(key.Crypto.MAC)
	if err != nil {
		return nil, fmt.Errorf("malformed mac: %w", err)
	}

	rounds := key.Crypto.KDFParams.C
	if rounds == 0 {
		rounds = kdfRounds
	}
	derivedKey := pbkdf2.Key([]byte(password), salt, rounds, kdfKeyLen, sha256.New)

	expectedMAC := sha256.Sum256(append(derivedKey[16:32], cipherText...))
	if !bytes.Equal(expectedMAC[:], mac) {
		return nil, errors.New("invalid password or corrupted key file")
	}

	block, err := aes.NewCipher(derivedKey[:16])
	if err != nil {
		return nil, err
	}

	privateKeyBytes := make([]byte, len(cipherText))
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(privateKeyBytes, cipherText)

	return ethcrypto.ToECDSA(privateKeyBytes)
}

// ListKeys returns the paths of all key files in the keystore.
func (ks *KeyStore) ListKeys() ([]string, error) {
	entries, err := os.ReadDir(ks.keyDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var keyFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), "UTC--") {
			keyFiles = append(keyFiles, filepath.Join(ks.keyDir, entry.Name()))
		}
	}

	return keyFiles, nil
}

// Inspect reads the public metadata of a key file without decrypting it.
func (ks *KeyStore) Inspect(keyPath string) (address string, createdAt time.Time, err error) {
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return "", time.Time{}, err
	}

	var key encryptedKey
	if err := json.Unmarshal(data, &key); err != nil {
		return "", time.Time{}, fmt.Errorf("malformed key file: %w", err)
	}

	return key.Address, time.Unix(key.Timestamp, 0), nil
}

// generateUUID generates a random identifier for a key file.
func generateUUID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
