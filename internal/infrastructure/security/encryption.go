package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

var (
	ErrEmptyKey          = errors.New("empty encryption key")
	ErrInvalidKeyLength  = errors.New("invalid key length")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)

// Encrypt encrypts data using AES-GCM with the provided key. The result is
// base64(nonce || ciphertext).
func Encrypt(data, key string) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(data), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts data produced by Encrypt.
func Decrypt(encrypted, key string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("base64 decode failed: %w", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", ErrInvalidCiphertext
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}

func newGCM(key string) (cipher.AEAD, error) {
	keyBytes, err := keyBytes(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return gcm, nil
}

// keyBytes accepts a hex key of 32, 48 or 64 characters, or raw 16/24/32 byte
// keys.
func keyBytes(key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	raw := []byte(key)
	switch len(key) {
	case 32, 48, 64:
		if decoded, err := hex.DecodeString(key); err == nil {
			raw = decoded
		}
	}

	switch len(raw) {
	case 16, 24, 32:
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: %d bytes, must be 16, 24, or 32", ErrInvalidKeyLength, len(raw))
	}
}
