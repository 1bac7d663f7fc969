/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwk

import (
	"crypto"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcec"

	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
)

// CurveSecp256k1 is the JWK "crv" of the secp256k1 curve.
const CurveSecp256k1 = "secp256k1"

const secp256k1CoordinateSize = 32

// ECPublicKey is a secp256k1 public key.
type ECPublicKey struct {
	Kid string
	Key *ecdsa.PublicKey
}

// NewECPublicKey wraps key with id kid.
func NewECPublicKey(kid string, key *ecdsa.PublicKey) *ECPublicKey {
	return &ECPublicKey{Kid: kid, Key: key}
}

// ECPublicKeyFromDescriptor builds a secp256k1 public key from a descriptor carrying either a
// publicKeyJwk (crv, x, y) or a raw compressed/uncompressed point.
func ECPublicKeyFromDescriptor(pk *did.PublicKey) (*ECPublicKey, error) {
	if pk.JWK != nil {
		if err := checkDescriptorKID(pk); err != nil {
			return nil, err
		}

		pub, err := ecPublicKeyFromJWK(pk.JWK)
		if err != nil {
			return nil, err
		}

		return &ECPublicKey{Kid: pk.ID, Key: pub}, nil
	}

	if len(pk.Value) == 0 {
		return nil, fmt.Errorf("%w: %s has no key material", ErrInvalidKey, pk.ID)
	}

	pub, err := btcec.ParsePubKey(pk.Value, btcec.S256())
	if err != nil {
		return nil, fmt.Errorf("%w: parse secp256k1 point: %v", ErrInvalidKey, err)
	}

	return &ECPublicKey{Kid: pk.ID, Key: pub.ToECDSA()}, nil
}

func ecPublicKeyFromJWK(jwkMap map[string]interface{}) (*ecdsa.PublicKey, error) {
	if crv := stringMember(jwkMap, "crv"); crv != CurveSecp256k1 {
		return nil, fmt.Errorf("%w: unsupported curve %q", ErrInvalidKey, crv)
	}

	x, err := bigIntMember(jwkMap, "x")
	if err != nil {
		return nil, err
	}

	y, err := bigIntMember(jwkMap, "y")
	if err != nil {
		return nil, err
	}

	curve := btcec.S256()
	if !curve.IsOnCurve(x, y) {
		return nil, fmt.Errorf("%w: point is not on curve %s", ErrInvalidKey, CurveSecp256k1)
	}

	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

func (k *ECPublicKey) keyMaterial() {}

// KeyType returns "EC".
func (k *ECPublicKey) KeyType() string { return KeyTypeEC }

// KeyID returns the key id.
func (k *ECPublicKey) KeyID() string { return k.Kid }

// DefaultSignAlgorithm returns ES256K.
func (k *ECPublicKey) DefaultSignAlgorithm() string { return ECDefaultSignAlgorithm }

// DefaultEncryptionAlgorithm returns "none": secp256k1 keys do not wrap content keys.
func (k *ECPublicKey) DefaultEncryptionAlgorithm() string { return ECDefaultEncryptionAlgorithm }

// Thumbprint computes the RFC 7638 thumbprint over crv, kty, x and y.
func (k *ECPublicKey) Thumbprint(h crypto.Hash) ([]byte, error) {
	return thumbprint(h, fmt.Sprintf(`{"crv":"%s","kty":"EC","x":"%s","y":"%s"}`, CurveSecp256k1,
		encodeBigInt(k.Key.X, secp256k1CoordinateSize), encodeBigInt(k.Key.Y, secp256k1CoordinateSize)))
}

// JWK returns kty, kid, crv, x and y.
func (k *ECPublicKey) JWK() map[string]interface{} {
	return withKID(map[string]interface{}{
		"kty": KeyTypeEC,
		"crv": CurveSecp256k1,
		"x":   encodeBigInt(k.Key.X, secp256k1CoordinateSize),
		"y":   encodeBigInt(k.Key.Y, secp256k1CoordinateSize),
	}, k.Kid)
}

// MarshalJSON marshals the public JWK.
func (k *ECPublicKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.JWK())
}

// ECPrivateKey is a secp256k1 private key.
type ECPrivateKey struct {
	ECPublicKey
	Private *ecdsa.PrivateKey
}

// NewECPrivateKey wraps key with id kid.
func NewECPrivateKey(kid string, key *ecdsa.PrivateKey) *ECPrivateKey {
	return &ECPrivateKey{ECPublicKey: ECPublicKey{Kid: kid, Key: &key.PublicKey}, Private: key}
}

// GenerateECPrivateKey generates a new secp256k1 private key.
func GenerateECPrivateKey(kid string) (*ECPrivateKey, error) {
	key, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		return nil, fmt.Errorf("jwk: generate secp256k1 key: %w", err)
	}

	return NewECPrivateKey(kid, key.ToECDSA()), nil
}

func newECPrivateKey(kid string, jwkMap map[string]interface{}) (*ECPrivateKey, error) {
	pub, err := ecPublicKeyFromJWK(jwkMap)
	if err != nil {
		return nil, err
	}

	d, err := bigIntMember(jwkMap, "d")
	if err != nil {
		return nil, err
	}

	priv, derived := btcec.PrivKeyFromBytes(btcec.S256(), d.Bytes())
	if derived.X.Cmp(pub.X) != 0 || derived.Y.Cmp(pub.Y) != 0 {
		return nil, fmt.Errorf("%w: d does not match x and y", ErrInvalidKey)
	}

	return NewECPrivateKey(kid, priv.ToECDSA()), nil
}

// Public returns the public projection.
func (k *ECPrivateKey) Public() PublicKey {
	return &ECPublicKey{Kid: k.Kid, Key: &k.Private.PublicKey}
}

// PrivateJWK returns the JWK including d.
func (k *ECPrivateKey) PrivateJWK() map[string]interface{} {
	m := k.JWK()
	m["d"] = encodeBigInt(k.Private.D, secp256k1CoordinateSize)

	return m
}
