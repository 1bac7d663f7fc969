/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vdr

import (
	"sync"

	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
	"github.com/trustbloc/did-auth-jose-go/pkg/vdr"
)

// MockResolver mock implementation of vdr.Resolver
// to be used only for unit tests.
type MockResolver struct {
	ResolveErr  error
	ResolveFunc func(didID string) (*did.DocResolution, error)

	mutex sync.RWMutex
	docs  map[string]*did.Doc
	calls map[string]int
}

// Store adds doc to the documents returned by Resolve.
func (m *MockResolver) Store(doc *did.Doc) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.docs == nil {
		m.docs = make(map[string]*did.Doc)
	}

	m.docs[doc.ID] = doc
}

// Resolve did document.
func (m *MockResolver) Resolve(didID string) (*did.DocResolution, error) {
	m.mutex.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}

	m.calls[didID]++
	doc, ok := m.docs[didID]
	m.mutex.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(didID)
	}

	if m.ResolveErr != nil {
		return nil, m.ResolveErr
	}

	if !ok {
		return nil, vdr.ErrNotFound
	}

	return &did.DocResolution{DIDDocument: doc}, nil
}

// Calls returns how many times didID was resolved.
func (m *MockResolver) Calls(didID string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.calls[didID]
}
