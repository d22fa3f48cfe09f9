// Package credentials handles GitHub access tokens at rest: symmetric
// authenticated encryption of the token string and the stores that persist
// the encrypted form. Plaintext tokens only ever exist transiently, decrypted
// immediately before a GitHub call.
package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	keySize   = 32
	nonceSize = 12
	tagSize   = 16
)

// KeySource returns the currently configured encryption secret. It is called
// on every Encrypt/Decrypt so secret rotation through live configuration is
// picked up without restarting, and a missing secret fails the call rather
// than the process start.
type KeySource func() string

// Cipher encrypts and decrypts access tokens with AES-256-GCM. The encoded
// form is "nonce:tag:ciphertext", each part hex. A fresh 12-byte nonce is
// drawn per encryption, so the same token encrypts to a different string
// every time.
type Cipher struct {
	key KeySource
}

// NewCipher creates a Cipher reading its secret from key.
func NewCipher(key KeySource) *Cipher {
	return &Cipher{key: key}
}

// Encrypt seals plaintext and returns the nonce:tag:ciphertext hex encoding.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	aead, err := c.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("draw nonce: %w", err)
	}

	sealed := aead.Seal(nil, nonce, []byte(plaintext), nil)
	// Seal appends the 16-byte tag after the ciphertext; the stored format
	// keeps them as separate fields.
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt opens an encoded credential produced by Encrypt. It fails with
// TokenFormatError when the input does not parse, and with VerificationError
// when the authentication tag does not verify (wrong key, truncation, or
// tampering). It never returns unauthenticated plaintext.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	aead, err := c.aead()
	if err != nil {
		return "", err
	}

	parts := strings.Split(encoded, ":")
	if len(parts) != 3 {
		return "", TokenFormatError{Reason: fmt.Sprintf("expected 3 colon-separated fields, got %d", len(parts))}
	}

	nonce, err := hex.DecodeString(parts[0])
	if err != nil || len(nonce) != nonceSize {
		return "", TokenFormatError{Reason: "invalid nonce field"}
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil || len(tag) != tagSize {
		return "", TokenFormatError{Reason: "invalid tag field"}
	}
	// The ciphertext field is empty for an empty token; that is still a
	// valid sealed value, so only reject malformed hex here.
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", TokenFormatError{Reason: "invalid ciphertext field"}
	}

	plaintext, err := aead.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", VerificationError{}
	}
	return string(plaintext), nil
}

// aead builds the AES-256-GCM instance from the current secret. The secret is
// either a 64-hex-char key used as-is, or an arbitrary passphrase hashed with
// SHA-256 down to the 32-byte key.
func (c *Cipher) aead() (cipher.AEAD, error) {
	secret := c.key()
	if secret == "" {
		return nil, MissingKeyError{}
	}

	key := deriveKey(secret)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init GCM: %w", err)
	}
	return aead, nil
}

func deriveKey(secret string) []byte {
	if len(secret) == keySize*2 {
		if key, err := hex.DecodeString(secret); err == nil {
			return key
		}
	}
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}
