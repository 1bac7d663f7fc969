/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package aessuite provides the AES content encryption algorithms: A128GCM, A192GCM, A256GCM
// and the AES-CBC with HMAC-SHA2 composites A128CBC-HS256, A192CBC-HS384 and A256CBC-HS512.
package aessuite

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	josecipher "github.com/go-jose/go-jose/v3/cipher"

	"github.com/trustbloc/did-auth-jose-go/pkg/crypto/suite"
)

// Content encryption algorithm names.
const (
	A128GCM      = "A128GCM"
	A192GCM      = "A192GCM"
	A256GCM      = "A256GCM"
	A128CBCHS256 = "A128CBC-HS256"
	A192CBCHS384 = "A192CBC-HS384"
	A256CBCHS512 = "A256CBC-HS512"
)

const (
	gcmIVSize = 12
	cbcIVSize = aes.BlockSize
)

// Option configures the suite.
type Option func(s *Suite)

// WithRandom sets the source used for generated keys and IVs. The key is drawn before the IV.
func WithRandom(r io.Reader) Option {
	return func(s *Suite) {
		s.random = r
	}
}

// Suite implements suite.Suite for AES content encryption.
type Suite struct {
	random io.Reader
}

// New creates the AES suite.
func New(opts ...Option) *Suite {
	s := &Suite{random: rand.Reader}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Signers is empty for this suite.
func (s *Suite) Signers() map[string]suite.SignatureAlgorithm {
	return map[string]suite.SignatureAlgorithm{}
}

// KeyEncrypters is empty for this suite.
func (s *Suite) KeyEncrypters() map[string]suite.KeyEncryptionAlgorithm {
	return map[string]suite.KeyEncryptionAlgorithm{}
}

// ContentEncrypters returns the GCM and CBC-HMAC algorithms.
func (s *Suite) ContentEncrypters() map[string]suite.ContentEncryptionAlgorithm {
	algs := map[string]suite.ContentEncryptionAlgorithm{}

	for name, size := range map[string]int{A128GCM: 16, A192GCM: 24, A256GCM: 32} {
		c := &gcmCipher{keySize: size, random: s.random}
		algs[name] = suite.ContentEncryptionAlgorithm{Encrypt: c.encrypt, Decrypt: c.decrypt}
	}

	// composite keys are the MAC key followed by the encryption key
	for name, size := range map[string]int{A128CBCHS256: 32, A192CBCHS384: 48, A256CBCHS512: 64} {
		c := &cbcHMACCipher{keySize: size, random: s.random}
		algs[name] = suite.ContentEncryptionAlgorithm{Encrypt: c.encrypt, Decrypt: c.decrypt}
	}

	return algs
}

// KeyConstructors is empty for this suite.
func (s *Suite) KeyConstructors() map[string]suite.KeyConstructor {
	return map[string]suite.KeyConstructor{}
}

type gcmCipher struct {
	keySize int
	random  io.Reader
}

func (c *gcmCipher) encrypt(plaintext, aad []byte) (*suite.SymmetricEncryptionResult, error) {
	key, iv, err := generate(c.random, c.keySize, gcmIVSize)
	if err != nil {
		return nil, err
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	sealed := aead.Seal(nil, iv, plaintext, aad)
	tagStart := len(sealed) - aead.Overhead()

	return &suite.SymmetricEncryptionResult{
		Ciphertext: sealed[:tagStart],
		IV:         iv,
		Key:        key,
		Tag:        sealed[tagStart:],
	}, nil
}

func (c *gcmCipher) decrypt(ciphertext, aad, iv, key, tag []byte) ([]byte, error) {
	if len(key) != c.keySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", suite.ErrIntegrity, c.keySize)
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(iv) != aead.NonceSize() || len(tag) != aead.Overhead() {
		return nil, fmt.Errorf("%w: invalid iv or tag length", suite.ErrIntegrity)
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", suite.ErrIntegrity, err)
	}

	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create aes cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return aead, nil
}

type cbcHMACCipher struct {
	keySize int
	random  io.Reader
}

func (c *cbcHMACCipher) encrypt(plaintext, aad []byte) (*suite.SymmetricEncryptionResult, error) {
	key, iv, err := generate(c.random, c.keySize, cbcIVSize)
	if err != nil {
		return nil, err
	}

	aead, err := josecipher.NewCBCHMAC(key, aes.NewCipher)
	if err != nil {
		return nil, fmt.Errorf("create cbc-hmac: %w", err)
	}

	sealed := aead.Seal(nil, iv, plaintext, aad)
	tagStart := len(sealed) - c.tagSize()

	return &suite.SymmetricEncryptionResult{
		Ciphertext: sealed[:tagStart],
		IV:         iv,
		Key:        key,
		Tag:        sealed[tagStart:],
	}, nil
}

func (c *cbcHMACCipher) decrypt(ciphertext, aad, iv, key, tag []byte) ([]byte, error) {
	if len(key) != c.keySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", suite.ErrIntegrity, c.keySize)
	}

	aead, err := josecipher.NewCBCHMAC(key, aes.NewCipher)
	if err != nil {
		return nil, fmt.Errorf("create cbc-hmac: %w", err)
	}

	if len(iv) != aead.NonceSize() || len(tag) != c.tagSize() {
		return nil, fmt.Errorf("%w: invalid iv or tag length", suite.ErrIntegrity)
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", suite.ErrIntegrity, err)
	}

	return plaintext, nil
}

// tagSize is half the composite key; the cipher's Overhead also counts padding.
func (c *cbcHMACCipher) tagSize() int {
	return c.keySize / 2
}

func generate(random io.Reader, keySize, ivSize int) ([]byte, []byte, error) {
	key := make([]byte, keySize)
	if _, err := io.ReadFull(random, key); err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(random, iv); err != nil {
		return nil, nil, fmt.Errorf("generate iv: %w", err)
	}

	return key, iv, nil
}
