package auth

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/af-corp/shipsense/internal/config"
)

// KeyMetadata describes an accepted API key.
type KeyMetadata struct {
	ID string
}

// KeyStore looks up API key metadata by hash. A nil result means the key is unknown.
type KeyStore interface {
	Lookup(ctx context.Context, keyHash string) (*KeyMetadata, error)
}

// StaticKeyStore accepts the key hashes listed in config. It reads config on
// every lookup, so reloaded hashes apply immediately.
type StaticKeyStore struct {
	cfg func() config.AuthConfig
}

func NewStaticKeyStore(cfg func() config.AuthConfig) *StaticKeyStore {
	return &StaticKeyStore{cfg: cfg}
}

func (s *StaticKeyStore) Lookup(_ context.Context, keyHash string) (*KeyMetadata, error) {
	var found *KeyMetadata
	for _, h := range s.cfg().KeyHashes {
		h = strings.ToLower(strings.TrimSpace(h))
		if subtle.ConstantTimeCompare([]byte(h), []byte(keyHash)) == 1 {
			found = &KeyMetadata{ID: keyHash[:12]}
		}
	}
	return found, nil
}
