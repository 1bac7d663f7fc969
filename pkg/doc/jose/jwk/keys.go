/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jwk provides the typed key material used by the JOSE tokens: RSA and secp256k1 EC
// public and private keys built from JSON Web Keys or DID document key descriptors, and opaque
// symmetric secrets.
package jwk

import (
	"crypto"
	_ "crypto/sha256" // registers SHA-256 for Thumbprint
	_ "crypto/sha512" // registers SHA-512 for Thumbprint
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
)

// Key types (JWK "kty").
const (
	KeyTypeRSA       = "RSA"
	KeyTypeEC        = "EC"
	KeyTypeSymmetric = "oct"
)

// Default algorithm hints carried by the key families.
const (
	RSADefaultSignAlgorithm       = "RS256"
	RSADefaultEncryptionAlgorithm = "RSA-OAEP"
	ECDefaultSignAlgorithm        = "ES256K"
	ECDefaultEncryptionAlgorithm  = "none"
)

var (
	// ErrInvalidKey is returned when a JWK or key descriptor cannot be turned into a key.
	ErrInvalidKey = errors.New("invalid key")
	// ErrUnsupportedKeyFamily is returned for key types without an implementation.
	ErrUnsupportedKeyFamily = errors.New("key type not supported")
)

// Key is any key material: one of *RSAPublicKey, *RSAPrivateKey, *ECPublicKey, *ECPrivateKey
// or *SymmetricKey.
type Key interface {
	// KeyType returns the JWK "kty".
	KeyType() string
	// KeyID returns the key id, usually <did>#<fragment>. It may be empty.
	KeyID() string

	keyMaterial()
}

// PublicKey is an asymmetric key usable to verify signatures or to wrap content keys.
// Private keys are PublicKeys too; JWK and MarshalJSON never include secret members.
type PublicKey interface {
	Key
	DefaultSignAlgorithm() string
	DefaultEncryptionAlgorithm() string
	// Thumbprint computes the RFC 7638 thumbprint with hash h.
	Thumbprint(h crypto.Hash) ([]byte, error)
	// JWK returns the public members of the key as a JSON Web Key.
	JWK() map[string]interface{}
}

// PrivateKey is an asymmetric key with secret material.
type PrivateKey interface {
	PublicKey
	// Public returns the public projection of the key.
	Public() PublicKey
	// PrivateJWK returns the JSON Web Key including the secret members.
	PrivateJWK() map[string]interface{}
}

// ParsePrivateKey creates a private key from the JSON Web Key raw. kid overrides the JWK "kid" when set.
func ParsePrivateKey(kid string, raw []byte) (PrivateKey, error) {
	jwkMap := map[string]interface{}{}

	if err := json.Unmarshal(raw, &jwkMap); err != nil {
		return nil, fmt.Errorf("%w: unmarshal jwk: %v", ErrInvalidKey, err)
	}

	if kid == "" {
		kid = stringMember(jwkMap, "kid")
	}

	switch kty := stringMember(jwkMap, "kty"); kty {
	case KeyTypeRSA:
		return newRSAPrivateKey(kid, jwkMap)
	case KeyTypeEC:
		return newECPrivateKey(kid, jwkMap)
	default:
		return nil, fmt.Errorf("%w: %q has no private key implementation", ErrUnsupportedKeyFamily, kty)
	}
}

// checkDescriptorKID enforces that the kid inside a JWK, if present, is a suffix of the descriptor id.
func checkDescriptorKID(pk *did.PublicKey) error {
	if kid := stringMember(pk.JWK, "kid"); kid != "" && !strings.HasSuffix(pk.ID, kid) {
		return fmt.Errorf("%w: jwk kid %q does not match key id %q", ErrInvalidKey, kid, pk.ID)
	}

	return nil
}

func stringMember(m map[string]interface{}, name string) string {
	s, _ := m[name].(string)

	return s
}

func bigIntMember(m map[string]interface{}, name string) (*big.Int, error) {
	raw := stringMember(m, name)
	if raw == "" {
		return nil, fmt.Errorf("%w: missing %q", ErrInvalidKey, name)
	}

	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %q: %v", ErrInvalidKey, name, err)
	}

	return new(big.Int).SetBytes(b), nil
}

func encodeBigInt(n *big.Int, size int) string {
	b := n.Bytes()
	if len(b) < size {
		padded := make([]byte, size)
		copy(padded[size-len(b):], b)
		b = padded
	}

	return base64.RawURLEncoding.EncodeToString(b)
}

func withKID(m map[string]interface{}, kid string) map[string]interface{} {
	if kid != "" {
		m["kid"] = kid
	}

	return m
}

// thumbprint hashes the canonical JSON of the required members, which must be listed in lexical order.
func thumbprint(h crypto.Hash, canonical string) ([]byte, error) {
	if !h.Available() {
		return nil, fmt.Errorf("jwk: thumbprint hash %v not available", h)
	}

	hasher := h.New()
	hasher.Write([]byte(canonical))

	return hasher.Sum(nil), nil
}
