/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package suite

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
)

// DefaultSymmetricAlgorithm is the content encryption algorithm used when none is configured.
const DefaultSymmetricAlgorithm = "A128GCM"

// Option configures a Registry.
type Option func(opts *Registry)

// WithDefaultSymmetricAlgorithm sets the content encryption algorithm used by default.
func WithDefaultSymmetricAlgorithm(enc string) Option {
	return func(opts *Registry) {
		opts.defaultSymmetric = enc
	}
}

// Registry resolves algorithm names across suites. Lookup tables are built once by NewRegistry,
// where the first suite registering a name wins; a Registry is safe for concurrent use.
type Registry struct {
	signers           map[string]SignatureAlgorithm
	keyEncrypters     map[string]KeyEncryptionAlgorithm
	contentEncrypters map[string]ContentEncryptionAlgorithm
	keyConstructors   map[string]KeyConstructor
	defaultSymmetric  string
}

// NewRegistry creates a Registry over suites, in registration order.
func NewRegistry(suites []Suite, opts ...Option) *Registry {
	r := &Registry{
		signers:           map[string]SignatureAlgorithm{},
		keyEncrypters:     map[string]KeyEncryptionAlgorithm{},
		contentEncrypters: map[string]ContentEncryptionAlgorithm{},
		keyConstructors:   map[string]KeyConstructor{},
		defaultSymmetric:  DefaultSymmetricAlgorithm,
	}

	for _, s := range suites {
		addMissing(r.signers, s.Signers())
		addMissing(r.keyEncrypters, s.KeyEncrypters())
		addMissing(r.contentEncrypters, s.ContentEncrypters())
		addMissing(r.keyConstructors, s.KeyConstructors())
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func addMissing[V any](dst, src map[string]V) {
	for name, v := range src {
		if _, ok := dst[name]; !ok {
			dst[name] = v
		}
	}
}

// Signer returns the sign function of alg.
func (r *Registry) Signer(alg string) (SignFunc, error) {
	a, ok := r.signers[alg]
	if !ok || a.Sign == nil {
		return nil, unsupported("signature", alg)
	}

	return a.Sign, nil
}

// Verifier returns the verify function of alg.
func (r *Registry) Verifier(alg string) (VerifyFunc, error) {
	a, ok := r.signers[alg]
	if !ok || a.Verify == nil {
		return nil, unsupported("signature", alg)
	}

	return a.Verify, nil
}

// AsymmetricEncrypter returns the CEK wrapping function of alg.
func (r *Registry) AsymmetricEncrypter(alg string) (AsymmetricEncryptFunc, error) {
	a, ok := r.keyEncrypters[alg]
	if !ok || a.Encrypt == nil {
		return nil, unsupported("key encryption", alg)
	}

	return a.Encrypt, nil
}

// AsymmetricDecrypter returns the CEK unwrapping function of alg.
func (r *Registry) AsymmetricDecrypter(alg string) (AsymmetricDecryptFunc, error) {
	a, ok := r.keyEncrypters[alg]
	if !ok || a.Decrypt == nil {
		return nil, unsupported("key encryption", alg)
	}

	return a.Decrypt, nil
}

// SymmetricEncrypter returns the content encryption function of enc.
func (r *Registry) SymmetricEncrypter(enc string) (SymmetricEncryptFunc, error) {
	a, ok := r.contentEncrypters[enc]
	if !ok || a.Encrypt == nil {
		return nil, unsupported("content encryption", enc)
	}

	return a.Encrypt, nil
}

// SymmetricDecrypter returns the content decryption function of enc.
func (r *Registry) SymmetricDecrypter(enc string) (SymmetricDecryptFunc, error) {
	a, ok := r.contentEncrypters[enc]
	if !ok || a.Decrypt == nil {
		return nil, unsupported("content encryption", enc)
	}

	return a.Decrypt, nil
}

// KeyConstructor returns the constructor for descriptors of keyType.
func (r *Registry) KeyConstructor(keyType string) (KeyConstructor, error) {
	c, ok := r.keyConstructors[keyType]
	if !ok {
		return nil, unsupported("key type", keyType)
	}

	return c, nil
}

// ConstructKey builds the public key described by pk using the constructor registered for its type.
func (r *Registry) ConstructKey(pk *did.PublicKey) (jwk.PublicKey, error) {
	c, err := r.KeyConstructor(pk.Type)
	if err != nil {
		return nil, err
	}

	return c(pk)
}

// DefaultSymmetricAlgorithm returns the content encryption algorithm used when a header names none.
func (r *Registry) DefaultSymmetricAlgorithm() string {
	return r.defaultSymmetric
}

// Algorithms lists the supported signature, key encryption and content encryption algorithm names, sorted.
func (r *Registry) Algorithms() []string {
	names := append(maps.Keys(r.signers), maps.Keys(r.keyEncrypters)...)
	names = append(names, maps.Keys(r.contentEncrypters)...)
	slices.Sort(names)

	return slices.Compact(names)
}

func unsupported(kind, name string) error {
	return fmt.Errorf("%w: %s %q", ErrUnsupportedAlgorithm, kind, name)
}
