/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keystore holds private key material behind opaque references and performs signing and
// decryption with it, so that keys never leave the store except through Get.
package keystore

import (
	"errors"

	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
)

// ProtectionFormat selects the JOSE serialization used to protect content.
type ProtectionFormat string

// Protection formats.
const (
	FlatJSONJWS    ProtectionFormat = "FlatJsonJws"
	CompactJSONJWS ProtectionFormat = "CompactJsonJws"
	CompactJSONJWE ProtectionFormat = "CompactJsonJwe"
	FlatJSONJWE    ProtectionFormat = "FlatJsonJwe"
)

// IsSignature reports whether f is a JWS format.
func (f ProtectionFormat) IsSignature() bool {
	return f == FlatJSONJWS || f == CompactJSONJWS
}

// IsEncryption reports whether f is a JWE format.
func (f ProtectionFormat) IsEncryption() bool {
	return f == FlatJSONJWE || f == CompactJSONJWE
}

var (
	// ErrKeyReferenceNotFound is returned when no key is stored under a reference.
	ErrKeyReferenceNotFound = errors.New("key reference not found")
	// ErrUnsupportedFormat is returned when an operation is asked for a format it cannot produce.
	ErrUnsupportedFormat = errors.New("unsupported protection format")
	// ErrUnsupportedKeyFamily is returned for keys the operation cannot use.
	ErrUnsupportedKeyFamily = jwk.ErrUnsupportedKeyFamily
)

// KeyStore stores keys by reference.
type KeyStore interface {
	// Save stores key under ref, replacing any previous key.
	Save(ref string, key jwk.Key) error
	// Get returns the key stored under ref, or its public projection when publicOnly is set.
	Get(ref string, publicOnly bool) (jwk.Key, error)
	// List returns every reference mapped to the key id stored under it.
	List() (map[string]string, error)
}
