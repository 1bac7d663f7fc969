/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package suite defines algorithm suites, the pluggable providers of JOSE signature, key
// wrapping and content encryption algorithms, and the Registry that resolves algorithm names
// across a list of suites.
package suite

import (
	"errors"

	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
)

var (
	// ErrUnsupportedAlgorithm is returned when no registered suite implements an algorithm or key type.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	// ErrIntegrity is returned when authenticated decryption fails.
	ErrIntegrity = errors.New("integrity check failed")
)

// SignFunc signs signingInput with key.
type SignFunc func(signingInput []byte, key jwk.PrivateKey) ([]byte, error)

// VerifyFunc reports whether signature is valid for signingInput under key. It fails closed.
type VerifyFunc func(signingInput, signature []byte, key jwk.PublicKey) bool

// AsymmetricEncryptFunc wraps a content-encryption key for key.
type AsymmetricEncryptFunc func(cek []byte, key jwk.PublicKey) ([]byte, error)

// AsymmetricDecryptFunc unwraps a content-encryption key with key.
type AsymmetricDecryptFunc func(encryptedKey []byte, key jwk.PrivateKey) ([]byte, error)

// SymmetricEncryptionResult is the output of a content encryption.
type SymmetricEncryptionResult struct {
	Ciphertext []byte
	IV         []byte
	Key        []byte
	Tag        []byte
}

// SymmetricEncryptFunc encrypts plaintext under a freshly generated key, authenticating aad.
type SymmetricEncryptFunc func(plaintext, aad []byte) (*SymmetricEncryptionResult, error)

// SymmetricDecryptFunc decrypts ciphertext. Authentication failures are reported as ErrIntegrity.
type SymmetricDecryptFunc func(ciphertext, aad, iv, key, tag []byte) ([]byte, error)

// KeyConstructor builds a public key from a DID document key descriptor.
type KeyConstructor func(pk *did.PublicKey) (jwk.PublicKey, error)

// SignatureAlgorithm pairs a signer with its verifier.
type SignatureAlgorithm struct {
	Sign   SignFunc
	Verify VerifyFunc
}

// KeyEncryptionAlgorithm pairs CEK wrapping with unwrapping.
type KeyEncryptionAlgorithm struct {
	Encrypt AsymmetricEncryptFunc
	Decrypt AsymmetricDecryptFunc
}

// ContentEncryptionAlgorithm pairs content encryption with decryption.
type ContentEncryptionAlgorithm struct {
	Encrypt SymmetricEncryptFunc
	Decrypt SymmetricDecryptFunc
}

// Suite is one key family's set of algorithms, keyed by JOSE algorithm name or descriptor type.
type Suite interface {
	Signers() map[string]SignatureAlgorithm
	KeyEncrypters() map[string]KeyEncryptionAlgorithm
	ContentEncrypters() map[string]ContentEncryptionAlgorithm
	KeyConstructors() map[string]KeyConstructor
}
