package kv

import (
	"context"
	"fmt"

	"github.com/akagifreeez/cookie-relay/pkg/crypto"
)

// SealedStore encrypts values before they reach the wrapped store. Keys are
// left in plaintext so prefix scans keep working.
type SealedStore struct {
	inner Store
	key   []byte
}

// NewSealedStore wraps inner with AES-256-GCM value encryption.
func NewSealedStore(inner Store, key []byte) (*SealedStore, error) {
	if len(key) != crypto.KeySize {
		return nil, crypto.ErrKeySize
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &SealedStore{inner: inner, key: k}, nil
}

func (s *SealedStore) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.open(key, sealed)
}

func (s *SealedStore) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := crypto.Seal(s.key, value)
	if err != nil {
		return fmt.Errorf("seal %q: %w", key, err)
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *SealedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *SealedStore) Scan(ctx context.Context, prefix string) ([]Entry, error) {
	entries, err := s.inner.Scan(ctx, prefix)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		v, err := s.open(entries[i].Key, entries[i].Value)
		if err != nil {
			return nil, err
		}
		entries[i].Value = v
	}
	return entries, nil
}

// Inner returns the wrapped store. Values read from it are still sealed.
func (s *SealedStore) Inner() Store {
	return s.inner
}

// Unwrap strips every SealedStore layer from s and returns the store that
// holds the sealed bytes.
func Unwrap(s Store) Store {
	for {
		w, ok := s.(interface{ Inner() Store })
		if !ok {
			return s
		}
		s = w.Inner()
	}
}

func (s *SealedStore) Close() error {
	return s.inner.Close()
}

func (s *SealedStore) open(key string, sealed []byte) ([]byte, error) {
	v, err := crypto.Open(s.key, sealed)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", key, err)
	}
	return v, nil
}

var _ Store = (*SealedStore)(nil)
