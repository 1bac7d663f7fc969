/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package rsasuite provides RS256 and RS512 signatures, RSA-OAEP key encryption and the
// RsaVerificationKey2018 key constructor.
package rsasuite

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // RSA-OAEP is defined over SHA-1.
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"io"

	"github.com/trustbloc/did-auth-jose-go/pkg/crypto/suite"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
)

// Algorithm and key type names.
const (
	RS256                  = "RS256"
	RS512                  = "RS512"
	RSAOAEP                = "RSA-OAEP"
	RsaVerificationKey2018 = "RsaVerificationKey2018"
)

var errKeyFamily = errors.New("key is not an RSA key")

// Suite implements suite.Suite for RSA keys.
type Suite struct {
	random io.Reader
}

// New creates the RSA suite.
func New() *Suite {
	return &Suite{random: rand.Reader}
}

// Signers returns RS256 and RS512.
func (s *Suite) Signers() map[string]suite.SignatureAlgorithm {
	return map[string]suite.SignatureAlgorithm{
		RS256: s.pkcs1(crypto.SHA256, sha256.New),
		RS512: s.pkcs1(crypto.SHA512, sha512.New),
	}
}

// KeyEncrypters returns RSA-OAEP.
func (s *Suite) KeyEncrypters() map[string]suite.KeyEncryptionAlgorithm {
	return map[string]suite.KeyEncryptionAlgorithm{
		RSAOAEP: {Encrypt: s.encryptOAEP, Decrypt: s.decryptOAEP},
	}
}

// ContentEncrypters is empty for this suite.
func (s *Suite) ContentEncrypters() map[string]suite.ContentEncryptionAlgorithm {
	return map[string]suite.ContentEncryptionAlgorithm{}
}

// KeyConstructors returns the RsaVerificationKey2018 constructor.
func (s *Suite) KeyConstructors() map[string]suite.KeyConstructor {
	return map[string]suite.KeyConstructor{
		RsaVerificationKey2018: func(pk *did.PublicKey) (jwk.PublicKey, error) {
			return jwk.RSAPublicKeyFromDescriptor(pk)
		},
	}
}

func (s *Suite) pkcs1(h crypto.Hash, newHash func() hash.Hash) suite.SignatureAlgorithm {
	digest := func(msg []byte) []byte {
		d := newHash()
		d.Write(msg)

		return d.Sum(nil)
	}

	return suite.SignatureAlgorithm{
		Sign: func(signingInput []byte, key jwk.PrivateKey) ([]byte, error) {
			priv, ok := key.(*jwk.RSAPrivateKey)
			if !ok {
				return nil, errKeyFamily
			}

			sig, err := rsa.SignPKCS1v15(s.random, priv.Private, h, digest(signingInput))
			if err != nil {
				return nil, fmt.Errorf("rsa sign: %w", err)
			}

			return sig, nil
		},
		Verify: func(signingInput, signature []byte, key jwk.PublicKey) bool {
			pub := publicKey(key)
			if pub == nil {
				return false
			}

			return rsa.VerifyPKCS1v15(pub, h, digest(signingInput), signature) == nil
		},
	}
}

func (s *Suite) encryptOAEP(cek []byte, key jwk.PublicKey) ([]byte, error) {
	pub := publicKey(key)
	if pub == nil {
		return nil, errKeyFamily
	}

	encrypted, err := rsa.EncryptOAEP(sha1.New(), s.random, pub, cek, nil) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("rsa-oaep encrypt: %w", err)
	}

	return encrypted, nil
}

func (s *Suite) decryptOAEP(encryptedKey []byte, key jwk.PrivateKey) ([]byte, error) {
	priv, ok := key.(*jwk.RSAPrivateKey)
	if !ok {
		return nil, errKeyFamily
	}

	cek, err := rsa.DecryptOAEP(sha1.New(), s.random, priv.Private, encryptedKey, nil) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("rsa-oaep decrypt: %w", err)
	}

	return cek, nil
}

func publicKey(key jwk.PublicKey) *rsa.PublicKey {
	switch k := key.(type) {
	case *jwk.RSAPublicKey:
		return k.Key
	case *jwk.RSAPrivateKey:
		return k.Key
	default:
		return nil
	}
}
