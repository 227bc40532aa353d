// Package crypto provides key derivation and authenticated encryption
// for the ledger's sensitive fields and backup snapshots.
package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// Key derivation parameters. The salt is fixed so that the same
// passphrase always derives the same key across restarts and installs;
// the iteration count keeps offline brute force expensive.
const (
	KeySize       = 32
	kdfIterations = 100000
)

var kdfSalt = []byte("kredit_syariah_salt_2025")

// DeriveKey turns an operator passphrase into a 32-byte AES key using
// PBKDF2-HMAC-SHA256. Deterministic: the same passphrase always yields
// the same key. Callers must reject empty passphrases before invoking.
func DeriveKey(passphrase string) []byte {
	return pbkdf2.Key([]byte(passphrase), kdfSalt, kdfIterations, KeySize, sha256.New)
}
