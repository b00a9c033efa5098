// Package sealer produces opaque, tamper-proof tokens that carry a pair of identifiers.
package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrInvalidToken = errors.New("invalid token")

// Sealer encrypts "first:second" with AES-256-GCM and encodes the nonce-prefixed ciphertext
// as unpadded base64url.
type Sealer struct {
	aead cipher.AEAD
}

// New builds a Sealer from a base64-encoded 32-byte key.
func New(encodedKey string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

func (s *Sealer) Seal(first, second string) (string, error) {
	if first == "" || strings.Contains(first, ":") {
		return "", fmt.Errorf("first component must be non-empty and contain no ':'")
	}

	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ct := s.aead.Seal(nonce, nonce, []byte(first+":"+second), nil)
	return base64.RawURLEncoding.EncodeToString(ct), nil
}

// Open reverses Seal. Any malformed or tampered token yields ErrInvalidToken.
func (s *Sealer) Open(token string) (string, string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize+s.aead.Overhead() {
		return "", "", ErrInvalidToken
	}

	pt, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	first, second, ok := strings.Cut(string(pt), ":")
	if !ok {
		return "", "", ErrInvalidToken
	}
	return first, second, nil
}
