/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keystore

import (
	"fmt"
	"sync"

	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
)

// MemStore is an in-memory KeyStore.
type MemStore struct {
	keys map[string]jwk.Key
	lock sync.RWMutex
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{keys: make(map[string]jwk.Key)}
}

// Save stores key under ref.
func (s *MemStore) Save(ref string, key jwk.Key) error {
	if ref == "" {
		return fmt.Errorf("keystore: reference is required")
	}

	if key == nil {
		return fmt.Errorf("keystore: key is required")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.keys[ref] = key

	return nil
}

// Get returns the key under ref.
func (s *MemStore) Get(ref string, publicOnly bool) (jwk.Key, error) {
	s.lock.RLock()
	key, ok := s.keys[ref]
	s.lock.RUnlock()

	if !ok {
		return nil, fmt.Errorf("keystore: %w: %s", ErrKeyReferenceNotFound, ref)
	}

	if !publicOnly {
		return key, nil
	}

	switch k := key.(type) {
	case jwk.PrivateKey:
		return k.Public(), nil
	case jwk.PublicKey:
		return k, nil
	default:
		return nil, fmt.Errorf("keystore: %w: %s keys have no public projection", ErrUnsupportedKeyFamily, key.KeyType())
	}
}

// List returns reference to key id mappings.
func (s *MemStore) List() (map[string]string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	refs := make(map[string]string, len(s.keys))

	for ref, key := range s.keys {
		refs[ref] = key.KeyID()
	}

	return refs, nil
}
