package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// cacheKeyLength is the AES-256 key size derived for the cache.
	cacheKeyLength = 32
	// purposeSessionCache provides domain separation for the derived key.
	purposeSessionCache = "internhub-session-cache-v1"
)

// ErrInvalidMasterSecret is returned when the cache master secret is empty.
var ErrInvalidMasterSecret = errors.New("master secret cannot be empty")

// deriveCacheKey derives the cache encryption key from the master secret
// using HKDF-SHA256 with a fixed purpose string.
func deriveCacheKey(masterSecret []byte) ([]byte, error) {
	if len(masterSecret) == 0 {
		return nil, ErrInvalidMasterSecret
	}
	reader := hkdf.New(sha256.New, masterSecret, nil, []byte(purposeSessionCache))
	key := make([]byte, cacheKeyLength)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// newCacheAEAD builds the AES-GCM sealer for token-at-rest encryption.
func newCacheAEAD(masterSecret []byte) (cipher.AEAD, error) {
	key, err := deriveCacheKey(masterSecret)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal encrypts plaintext and encodes nonce||ciphertext as base64.
func seal(aead cipher.AEAD, plaintext string) (string, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// open decrypts a value produced by seal.
func open(aead cipher.AEAD, encoded string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode sealed value: %w", err)
	}
	if len(sealed) < aead.NonceSize() {
		return "", errors.New("sealed value too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt sealed value: %w", err)
	}
	return string(plaintext), nil
}
