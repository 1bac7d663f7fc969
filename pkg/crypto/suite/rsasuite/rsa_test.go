/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rsasuite

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
)

const kid = "did:example:123456789abcdefghi#keys-1"

func TestSigners(t *testing.T) {
	priv, err := jwk.GenerateRSAPrivateKey(kid, 2048)
	require.NoError(t, err)

	other, err := jwk.GenerateRSAPrivateKey(kid, 2048)
	require.NoError(t, err)

	ecKey, err := jwk.GenerateECPrivateKey(kid)
	require.NoError(t, err)

	input := []byte("eyJhbGciOiJSUzI1NiJ9.eyJzdWIiOiJhbGljZSJ9")

	for _, name := range []string{RS256, RS512} {
		name := name

		t.Run(name, func(t *testing.T) {
			alg := New().Signers()[name]

			sig, err := alg.Sign(input, priv)
			require.NoError(t, err)
			require.Len(t, sig, 256)

			require.True(t, alg.Verify(input, sig, priv.Public()))
			require.True(t, alg.Verify(input, sig, priv))
			require.False(t, alg.Verify([]byte("tampered"), sig, priv.Public()))
			require.False(t, alg.Verify(input, sig, other.Public()))
			require.False(t, alg.Verify(input, sig, ecKey.Public()))

			_, err = alg.Sign(input, ecKey)
			require.ErrorIs(t, err, errKeyFamily)
		})
	}

	t.Run("RS256 digest is SHA-256", func(t *testing.T) {
		sig, err := New().Signers()[RS256].Sign(input, priv)
		require.NoError(t, err)

		digest := sha256.Sum256(input)
		require.NoError(t, rsa.VerifyPKCS1v15(priv.Key, crypto.SHA256, digest[:], sig))
	})
}

func TestKeyEncrypters(t *testing.T) {
	priv, err := jwk.GenerateRSAPrivateKey(kid, 2048)
	require.NoError(t, err)

	other, err := jwk.GenerateRSAPrivateKey(kid, 2048)
	require.NoError(t, err)

	alg := New().KeyEncrypters()[RSAOAEP]
	cek := []byte("0123456789abcdef0123456789abcdef")

	encrypted, err := alg.Encrypt(cek, priv.Public())
	require.NoError(t, err)
	require.Len(t, encrypted, 256)

	decrypted, err := alg.Decrypt(encrypted, priv)
	require.NoError(t, err)
	require.Equal(t, cek, decrypted)

	_, err = alg.Decrypt(encrypted, other)
	require.Error(t, err)

	ecKey, err := jwk.GenerateECPrivateKey(kid)
	require.NoError(t, err)

	_, err = alg.Encrypt(cek, ecKey.Public())
	require.ErrorIs(t, err, errKeyFamily)

	_, err = alg.Decrypt(encrypted, ecKey)
	require.ErrorIs(t, err, errKeyFamily)
}

func TestKeyConstructors(t *testing.T) {
	priv, err := jwk.GenerateRSAPrivateKey(kid, 2048)
	require.NoError(t, err)

	construct := New().KeyConstructors()[RsaVerificationKey2018]
	require.NotNil(t, construct)

	pub, err := construct(&did.PublicKey{ID: kid, Type: RsaVerificationKey2018, JWK: priv.Public().JWK()})
	require.NoError(t, err)
	require.Equal(t, jwk.KeyTypeRSA, pub.KeyType())
	require.Equal(t, kid, pub.KeyID())

	_, err = construct(&did.PublicKey{ID: kid, Type: RsaVerificationKey2018})
	require.Error(t, err)

	require.Empty(t, New().ContentEncrypters())
}
