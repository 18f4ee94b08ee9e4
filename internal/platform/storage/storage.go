package storage

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("storage key not found")

// Backend is a durable byte-value store addressed by string keys.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Handle binds a backend to one namespaced key. It is the local cache handed
// to the evaluation store.
type Handle struct {
	backend Backend
	key     string
}

func NewHandle(backend Backend, namespace, key string) *Handle {
	namespace = strings.TrimSpace(namespace)
	if namespace != "" {
		key = namespace + ":" + key
	}
	return &Handle{backend: backend, key: key}
}

func (h *Handle) Key() string {
	return h.key
}

func (h *Handle) Load(ctx context.Context) ([]byte, error) {
	data, err := h.backend.Get(ctx, h.key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return data, err
}

func (h *Handle) Save(ctx context.Context, data []byte) error {
	return h.backend.Put(ctx, h.key, data)
}

func (h *Handle) Clear(ctx context.Context) error {
	err := h.backend.Delete(ctx, h.key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
