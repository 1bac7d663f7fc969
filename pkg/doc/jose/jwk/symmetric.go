/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwk

// SymmetricKey is an opaque shared secret. It has no public projection.
type SymmetricKey struct {
	Kid    string
	Secret []byte
}

// NewSymmetricKey wraps secret with id kid.
func NewSymmetricKey(kid string, secret []byte) *SymmetricKey {
	return &SymmetricKey{Kid: kid, Secret: secret}
}

func (k *SymmetricKey) keyMaterial() {}

// KeyType returns "oct".
func (k *SymmetricKey) KeyType() string { return KeyTypeSymmetric }

// KeyID returns the key id.
func (k *SymmetricKey) KeyID() string { return k.Kid }
