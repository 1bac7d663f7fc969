/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package secp256k1suite provides ES256K signatures over the secp256k1 curve together with the
// key constructors for the secp256k1 descriptor types found in DID documents.
package secp256k1suite

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec"

	"github.com/trustbloc/did-auth-jose-go/pkg/crypto/suite"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
)

// ES256K is the JOSE name of ECDSA over secp256k1 with SHA-256.
const ES256K = "ES256K"

// Descriptor types accepted for secp256k1 keys.
const (
	Secp256k1VerificationKey2018      = "Secp256k1VerificationKey2018"
	EdDsaSAPublicKeySecp256k1         = "EdDsaSAPublicKeySecp256k1"
	EdDsaSASignatureSecp256k1         = "EdDsaSASignatureSecp256k1"
	EcdsaPublicKeySecp256k1           = "EcdsaPublicKeySecp256k1"
	EcdsaSecp256k1VerificationKey2019 = "EcdsaSecp256k1VerificationKey2019"
)

const coordinateSize = 32

var errKeyFamily = errors.New("key is not a secp256k1 key")

// Suite implements suite.Suite for secp256k1 keys.
type Suite struct{}

// New creates the secp256k1 suite.
func New() *Suite {
	return &Suite{}
}

// Signers returns ES256K.
func (s *Suite) Signers() map[string]suite.SignatureAlgorithm {
	return map[string]suite.SignatureAlgorithm{
		ES256K: {Sign: sign, Verify: verify},
	}
}

// KeyEncrypters is empty: secp256k1 keys are not used for key encryption.
func (s *Suite) KeyEncrypters() map[string]suite.KeyEncryptionAlgorithm {
	return map[string]suite.KeyEncryptionAlgorithm{}
}

// ContentEncrypters is empty for this suite.
func (s *Suite) ContentEncrypters() map[string]suite.ContentEncryptionAlgorithm {
	return map[string]suite.ContentEncryptionAlgorithm{}
}

// KeyConstructors maps every secp256k1 descriptor type to the EC key constructor.
func (s *Suite) KeyConstructors() map[string]suite.KeyConstructor {
	construct := func(pk *did.PublicKey) (jwk.PublicKey, error) {
		return jwk.ECPublicKeyFromDescriptor(pk)
	}

	return map[string]suite.KeyConstructor{
		Secp256k1VerificationKey2018:      construct,
		EdDsaSAPublicKeySecp256k1:         construct,
		EdDsaSASignatureSecp256k1:         construct,
		EcdsaPublicKeySecp256k1:           construct,
		EcdsaSecp256k1VerificationKey2019: construct,
	}
}

// sign produces a deterministic low-S signature encoded as R || S.
func sign(signingInput []byte, key jwk.PrivateKey) ([]byte, error) {
	ecKey, ok := key.(*jwk.ECPrivateKey)
	if !ok {
		return nil, errKeyFamily
	}

	priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), ecKey.Private.D.Bytes())
	digest := sha256.Sum256(signingInput)

	sig, err := priv.Sign(digest[:])
	if err != nil {
		return nil, fmt.Errorf("es256k sign: %w", err)
	}

	out := make([]byte, 2*coordinateSize)
	sig.R.FillBytes(out[:coordinateSize])
	sig.S.FillBytes(out[coordinateSize:])

	return out, nil
}

// verify accepts R || S and, for interoperability, DER encoded signatures.
func verify(signingInput, signature []byte, key jwk.PublicKey) bool {
	pub := publicKey(key)
	if pub == nil {
		return false
	}

	var sig *btcec.Signature

	if len(signature) == 2*coordinateSize {
		sig = &btcec.Signature{
			R: new(big.Int).SetBytes(signature[:coordinateSize]),
			S: new(big.Int).SetBytes(signature[coordinateSize:]),
		}
	} else {
		var err error

		sig, err = btcec.ParseDERSignature(signature, btcec.S256())
		if err != nil {
			return false
		}
	}

	digest := sha256.Sum256(signingInput)

	return sig.Verify(digest[:], (*btcec.PublicKey)(pub))
}

func publicKey(key jwk.PublicKey) *ecdsa.PublicKey {
	var pub *ecdsa.PublicKey

	switch k := key.(type) {
	case *jwk.ECPublicKey:
		pub = k.Key
	case *jwk.ECPrivateKey:
		pub = k.Key
	default:
		return nil
	}

	if pub == nil || pub.Curve != btcec.S256() {
		return nil
	}

	return pub
}
