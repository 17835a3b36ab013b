// Package cryptox implements the password-based encryption applied to
// user data files: PBKDF2-HMAC-SHA256 key derivation and AES-256-GCM
// authenticated encryption.
//
// Every Encrypt call generates a fresh random salt, so two encryptions of
// identical content with the same password never produce identical blobs
// and no key or nonce is ever reused. The salt is stored with the
// ciphertext rather than derived from the username, which prevents
// precomputation attacks across users and files.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"

	"github.com/akarpov87/termvault/internal/common"
)

const (
	// SaltSize is the length of the random salt prefixed to every blob.
	SaltSize = 16
	// NonceSize is the standard AES-GCM nonce length.
	NonceSize = 12
	// KeySize selects AES-256.
	KeySize = 32
	// Iterations is the PBKDF2 cost factor. Deliberately slow: a single
	// derivation takes tens of milliseconds on commodity hardware.
	Iterations = 100_000
)

// blobOverhead is the non-ciphertext portion of a blob. Anything shorter
// cannot even hold a salt and nonce and is rejected outright.
const blobOverhead = SaltSize + NonceSize

// DeriveKey derives a 32-byte AES key from a password and salt using
// PBKDF2 with HMAC-SHA-256 and 100,000 iterations. Deterministic given
// identical inputs.
func DeriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, Iterations, KeySize, sha256.New)
}

// Encrypt derives a key from the password with a fresh random salt and
// seals the plaintext with AES-256-GCM under a fresh random nonce.
// The returned blob layout is salt ‖ nonce ‖ ciphertext‖tag.
// Empty plaintext is legal.
func Encrypt(plaintext, password []byte) ([]byte, error) {
	salt := common.GenerateRandByteArray(SaltSize)

	key := DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := common.GenerateRandByteArray(aesgcm.NonceSize())

	blob := make([]byte, 0, blobOverhead+len(plaintext)+aesgcm.Overhead())
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = aesgcm.Seal(blob, nonce, plaintext, nil)

	return blob, nil
}

// Decrypt parses the salt and nonce prefix of a blob produced by Encrypt,
// re-derives the key and opens the ciphertext. It fails closed: a short
// blob, a wrong password, or any bit flip in the ciphertext yields
// common.ErrDecryptionFailed and never partial plaintext.
func Decrypt(blob, password []byte) ([]byte, error) {
	if len(blob) < blobOverhead {
		return nil, common.ErrDecryptionFailed
	}

	salt := blob[:SaltSize]
	nonce := blob[SaltSize:blobOverhead]
	ciphertext := blob[blobOverhead:]

	key := DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
