/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwk

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/go-jose/go-jose/v3"

	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
)

// RSAPublicKey is an RSA public key.
type RSAPublicKey struct {
	Kid string
	Key *rsa.PublicKey
}

// NewRSAPublicKey wraps key with id kid.
func NewRSAPublicKey(kid string, key *rsa.PublicKey) *RSAPublicKey {
	return &RSAPublicKey{Kid: kid, Key: key}
}

// RSAPublicKeyFromDescriptor builds an RSA public key from a descriptor carrying a publicKeyJwk with n and e.
func RSAPublicKeyFromDescriptor(pk *did.PublicKey) (*RSAPublicKey, error) {
	if pk.JWK == nil {
		return nil, fmt.Errorf("%w: %s has no publicKeyJwk", ErrInvalidKey, pk.ID)
	}

	if err := checkDescriptorKID(pk); err != nil {
		return nil, err
	}

	webKey, err := parseGoJoseKey(pk.JWK)
	if err != nil {
		return nil, err
	}

	pub, ok := webKey.Key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an RSA public key", ErrInvalidKey, pk.ID)
	}

	return &RSAPublicKey{Kid: pk.ID, Key: pub}, nil
}

func (k *RSAPublicKey) keyMaterial() {}

// KeyType returns "RSA".
func (k *RSAPublicKey) KeyType() string { return KeyTypeRSA }

// KeyID returns the key id.
func (k *RSAPublicKey) KeyID() string { return k.Kid }

// DefaultSignAlgorithm returns RS256.
func (k *RSAPublicKey) DefaultSignAlgorithm() string { return RSADefaultSignAlgorithm }

// DefaultEncryptionAlgorithm returns RSA-OAEP.
func (k *RSAPublicKey) DefaultEncryptionAlgorithm() string { return RSADefaultEncryptionAlgorithm }

// Thumbprint computes the RFC 7638 thumbprint.
func (k *RSAPublicKey) Thumbprint(h crypto.Hash) ([]byte, error) {
	tp, err := (&jose.JSONWebKey{Key: k.Key}).Thumbprint(h)
	if err != nil {
		return nil, fmt.Errorf("jwk: rsa thumbprint: %w", err)
	}

	return tp, nil
}

// JWK returns kty, kid, n and e.
func (k *RSAPublicKey) JWK() map[string]interface{} {
	return withKID(map[string]interface{}{
		"kty": KeyTypeRSA,
		"n":   base64.RawURLEncoding.EncodeToString(k.Key.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(k.Key.E)).Bytes()),
	}, k.Kid)
}

// MarshalJSON marshals the public JWK.
func (k *RSAPublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.JWK())
}

// RSAPrivateKey is an RSA private key.
type RSAPrivateKey struct {
	RSAPublicKey
	Private *rsa.PrivateKey
}

// NewRSAPrivateKey wraps key with id kid.
func NewRSAPrivateKey(kid string, key *rsa.PrivateKey) *RSAPrivateKey {
	return &RSAPrivateKey{RSAPublicKey: RSAPublicKey{Kid: kid, Key: &key.PublicKey}, Private: key}
}

// GenerateRSAPrivateKey generates a new RSA private key of the given size.
func GenerateRSAPrivateKey(kid string, bits int) (*RSAPrivateKey, error) {
	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("jwk: generate rsa key: %w", err)
	}

	return NewRSAPrivateKey(kid, key), nil
}

func newRSAPrivateKey(kid string, jwkMap map[string]interface{}) (*RSAPrivateKey, error) {
	if stringMember(jwkMap, "d") == "" {
		return nil, fmt.Errorf("%w: rsa private key requires d", ErrInvalidKey)
	}

	webKey, err := parseGoJoseKey(jwkMap)
	if err != nil {
		return nil, err
	}

	priv, ok := webKey.Key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA private key", ErrInvalidKey)
	}

	priv.Precompute()

	return NewRSAPrivateKey(kid, priv), nil
}

// Public returns the public projection.
func (k *RSAPrivateKey) Public() PublicKey {
	return &RSAPublicKey{Kid: k.Kid, Key: &k.Private.PublicKey}
}

// PrivateJWK returns the JWK with d and the CRT parameters.
func (k *RSAPrivateKey) PrivateJWK() map[string]interface{} {
	m := k.JWK()
	m["d"] = base64.RawURLEncoding.EncodeToString(k.Private.D.Bytes())

	if len(k.Private.Primes) == 2 { //nolint:gomnd
		m["p"] = base64.RawURLEncoding.EncodeToString(k.Private.Primes[0].Bytes())
		m["q"] = base64.RawURLEncoding.EncodeToString(k.Private.Primes[1].Bytes())
	}

	if k.Private.Precomputed.Dp != nil {
		m["dp"] = base64.RawURLEncoding.EncodeToString(k.Private.Precomputed.Dp.Bytes())
		m["dq"] = base64.RawURLEncoding.EncodeToString(k.Private.Precomputed.Dq.Bytes())
		m["qi"] = base64.RawURLEncoding.EncodeToString(k.Private.Precomputed.Qinv.Bytes())
	}

	return m
}

func parseGoJoseKey(jwkMap map[string]interface{}) (*jose.JSONWebKey, error) {
	raw, err := json.Marshal(jwkMap)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal jwk: %v", ErrInvalidKey, err)
	}

	webKey := &jose.JSONWebKey{}

	if err = webKey.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return webKey, nil
}
