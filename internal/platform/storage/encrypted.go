package storage

import "context"

type Cipher interface {
	Encrypt(plain []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// EncryptedBackend seals values before they reach the wrapped backend.
type EncryptedBackend struct {
	next   Backend
	cipher Cipher
}

func NewEncryptedBackend(next Backend, cipher Cipher) *EncryptedBackend {
	return &EncryptedBackend{next: next, cipher: cipher}
}

func (e *EncryptedBackend) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := e.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return e.cipher.Decrypt(sealed)
}

func (e *EncryptedBackend) Put(ctx context.Context, key string, value []byte) error {
	sealed, err := e.cipher.Encrypt(value)
	if err != nil {
		return err
	}
	return e.next.Put(ctx, key, sealed)
}

func (e *EncryptedBackend) Delete(ctx context.Context, key string) error {
	return e.next.Delete(ctx, key)
}
