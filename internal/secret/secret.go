// Package secret seals OAuth access tokens before they are written to the
// credential store.
//
// WHY AEAD AND NOT A HASH?
// Password-style credentials are hashed because they only ever need to be
// compared. An OAuth access token is different: the server must send the
// original token back to GitHub on every provisioning call, so the value has
// to round-trip. XChaCha20-Poly1305 gives authenticated encryption with a
// random 24-byte nonce per seal, so the same token sealed twice produces
// different ciphertexts and any tampering with the stored value is detected
// on open.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Cipher seals and opens short secrets with a single symmetric key.
// A nil *Cipher is valid and passes values through unchanged; the store
// degrades to plaintext when no key is configured.
type Cipher struct {
	key []byte
}

// NewCipher creates a Cipher from a hex-encoded 32-byte key.
// Generate one with: openssl rand -hex 32
func NewCipher(hexKey string) (*Cipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("secret: key must be hex: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("secret: key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &Cipher{key: key}, nil
}

// Seal encrypts plaintext and returns a base64 string of nonce||ciphertext.
func (c *Cipher) Seal(plaintext string) (string, error) {
	if c == nil {
		return plaintext, nil
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("secret: creating cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secret: generating nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (c *Cipher) Open(sealed string) (string, error) {
	if c == nil {
		return sealed, nil
	}

	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("secret: decoding sealed value: %w", err)
	}

	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("secret: creating cipher: %w", err)
	}

	if len(raw) < aead.NonceSize() {
		return "", errors.New("secret: sealed value too short")
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("secret: opening sealed value: %w", err)
	}
	return string(plaintext), nil
}
