/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keystore

import (
	"encoding/json"
	"fmt"

	"github.com/trustbloc/did-auth-jose-go/pkg/crypto/suite"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
)

// signAlgorithms maps key families to the algorithm used when signing from the store.
var signAlgorithms = map[string]string{ //nolint:gochecknoglobals
	jwk.KeyTypeRSA: "RS256",
	jwk.KeyTypeEC:  "ES256K",
}

// Sign signs payload with the key stored under ref in the requested JWS format.
func Sign(store KeyStore, ref string, payload []byte, format ProtectionFormat, registry *suite.Registry,
	headers jose.Headers) (string, error) {
	if !format.IsSignature() {
		return "", fmt.Errorf("keystore: sign: %w: %s", ErrUnsupportedFormat, format)
	}

	key, err := privateKey(store, ref)
	if err != nil {
		return "", fmt.Errorf("keystore: sign: %w", err)
	}

	alg, ok := signAlgorithms[key.KeyType()]
	if !ok {
		return "", fmt.Errorf("keystore: sign: %w: %s", ErrUnsupportedKeyFamily, key.KeyType())
	}

	header := jose.Headers{jose.HeaderAlgorithm: alg}
	for k, v := range headers {
		header[k] = v
	}

	jws := jose.NewJWS(payload, registry)

	if format == CompactJSONJWS {
		return jws.Sign(key, header)
	}

	flat, err := jws.SignAsFlattenedJSON(key, header, nil)
	if err != nil {
		return "", err
	}

	b, err := json.Marshal(flat)
	if err != nil {
		return "", fmt.Errorf("keystore: sign: marshal: %w", err)
	}

	return string(b), nil
}

// Decrypt decrypts a JWE with the key stored under ref.
func Decrypt(store KeyStore, ref string, cipher []byte, format ProtectionFormat,
	registry *suite.Registry) ([]byte, error) {
	if !format.IsEncryption() {
		return nil, fmt.Errorf("keystore: decrypt: %w: %s", ErrUnsupportedFormat, format)
	}

	key, err := privateKey(store, ref)
	if err != nil {
		return nil, fmt.Errorf("keystore: decrypt: %w", err)
	}

	return jose.NewJWE(cipher, registry).Decrypt(key)
}

func privateKey(store KeyStore, ref string) (jwk.PrivateKey, error) {
	key, err := store.Get(ref, false)
	if err != nil {
		return nil, err
	}

	priv, ok := key.(jwk.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s key cannot sign or decrypt", ErrUnsupportedKeyFamily, key.KeyType())
	}

	return priv, nil
}
