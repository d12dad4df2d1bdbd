// Package crypto seals stored documents with AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// KeySize is the required key length in bytes.
const KeySize = 32

// Sealer encrypts and decrypts blobs. A Sealer built from an empty key is
// disabled and passes data through unchanged.
type Sealer struct {
	gcm cipher.AEAD
}

// ParseKey decodes a key given as 64 hex characters or as standard base64.
// An empty string yields a nil key.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if len(s) == hex.EncodedLen(KeySize) {
		if key, err := hex.DecodeString(s); err == nil {
			return key, nil
		}
	}
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("encryption key is neither hex nor base64")
	}
	return key, nil
}

// NewSealer creates a Sealer with the given 32-byte key.
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) == 0 {
		return &Sealer{}, nil
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &Sealer{gcm: gcm}, nil
}

// Enabled reports whether s encrypts.
func (s *Sealer) Enabled() bool { return s != nil && s.gcm != nil }

// Seal returns nonce || ciphertext. The id is bound as additional data so a
// blob cannot be swapped for another file's.
func (s *Sealer) Seal(id string, plaintext []byte) ([]byte, error) {
	if !s.Enabled() {
		return plaintext, nil
	}
	nonce := make([]byte, s.gcm.NonceSize(), s.gcm.NonceSize()+len(plaintext)+s.gcm.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return s.gcm.Seal(nonce, nonce, plaintext, []byte(id)), nil
}

// Open reverses Seal.
func (s *Sealer) Open(id string, sealed []byte) ([]byte, error) {
	if !s.Enabled() {
		return sealed, nil
	}
	nonceSize := s.gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ct := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := s.gcm.Open(nil, nonce, ct, []byte(id))
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}
