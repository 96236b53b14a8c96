// Package secrets seals router credentials with AES-256-GCM before they
// are written to the settings store. The key comes from the host
// environment; losing it means re-pairing, not data loss.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const nonceLength = 12

var ErrSealedTooShort = errors.New("secrets: sealed payload too short")

// Sealer encrypts and decrypts small credential strings. The passphrase
// is stretched to a 256-bit key with SHA-256, so any non-empty string
// works as key material.
type Sealer struct {
	key [sha256.Size]byte
}

func NewSealer(passphrase string) *Sealer {
	return &Sealer{key: sha256.Sum256([]byte(passphrase))}
}

// Seal encrypts the plaintext and returns a base64 payload with the
// nonce prepended.
func (s *Sealer) Seal(plaintext string) (string, error) {
	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("secrets: generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal.
func (s *Sealer) Open(encoded string) (string, error) {
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("secrets: decode sealed payload: %w", err)
	}

	if len(payload) < nonceLength {
		return "", ErrSealedTooShort
	}

	gcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, payload[:nonceLength], payload[nonceLength:], nil)
	if err != nil {
		return "", fmt.Errorf("secrets: open sealed payload: %w", err)
	}

	return string(plaintext), nil
}

func (s *Sealer) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key[:])
	if err != nil {
		return nil, fmt.Errorf("secrets: create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("secrets: init gcm: %w", err)
	}

	return gcm, nil
}
