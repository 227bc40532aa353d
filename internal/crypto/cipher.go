package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/paww122/kredit-ledger/internal/common"
)

// Cipher seals and opens byte payloads with AES-GCM. The random nonce
// is prepended to the ciphertext so a sealed blob is self-contained.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a Cipher from a derived key. The key must be a
// valid AES key length; DeriveKey always produces one.
func NewCipher(key []byte) (*Cipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCryptoFailure, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCryptoFailure, err)
	}

	return &Cipher{aead: aead}, nil
}

// Seal encrypts plaintext and returns nonce||ciphertext.
func (c *Cipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCryptoFailure, err)
	}

	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a nonce||ciphertext blob produced by Seal. It fails
// with ErrCryptoFailure on a wrong key or a tampered payload.
func (c *Cipher) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < c.aead.NonceSize() {
		return nil, fmt.Errorf("%w: sealed payload too short", common.ErrCryptoFailure)
	}

	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCryptoFailure, err)
	}

	return plaintext, nil
}

// SealToString seals plaintext and base64-encodes the result for
// storage in a TEXT column.
func (c *Cipher) SealToString(plaintext []byte) (string, error) {
	sealed, err := c.Seal(plaintext)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// OpenFromString reverses SealToString.
func (c *Cipher) OpenFromString(encoded string) ([]byte, error) {
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCryptoFailure, err)
	}
	return c.Open(sealed)
}
