package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const keySize = 32

var hkdfInfo = []byte("evaltool local storage v1")

// Service seals storage values with AES-256-GCM. Without a key it passes data
// through unchanged.
type Service struct {
	aead cipher.AEAD
}

// New accepts a 32-byte key as hex, base64 or raw text. Any other length is
// treated as a passphrase and stretched to 32 bytes with HKDF-SHA256.
func New(key string) (*Service, error) {
	if key == "" {
		return &Service{}, nil
	}
	material := decodeKey(key)
	if len(material) != keySize {
		derived, err := deriveKey(material)
		if err != nil {
			return nil, err
		}
		material = derived
	}
	block, err := aes.NewCipher(material)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Service{aead: aead}, nil
}

func (s *Service) Configured() bool {
	return s != nil && s.aead != nil
}

func (s *Service) Encrypt(plain []byte) ([]byte, error) {
	if !s.Configured() {
		return plain, nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return s.aead.Seal(nonce, nonce, plain, nil), nil
}

func (s *Service) Decrypt(ciphertext []byte) ([]byte, error) {
	if !s.Configured() {
		return ciphertext, nil
	}
	if len(ciphertext) < s.aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce := ciphertext[:s.aead.NonceSize()]
	return s.aead.Open(nil, nonce, ciphertext[s.aead.NonceSize():], nil)
}

func deriveKey(secret []byte) ([]byte, error) {
	out := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, hkdfInfo), out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeKey(raw string) []byte {
	if len(raw) == 2*keySize {
		if decoded, err := hex.DecodeString(raw); err == nil {
			return decoded
		}
	}
	if decoded, err := base64.StdEncoding.DecodeString(raw); err == nil && len(decoded) == keySize {
		return decoded
	}
	if decoded, err := base64.RawStdEncoding.DecodeString(raw); err == nil && len(decoded) == keySize {
		return decoded
	}
	return []byte(raw)
}
