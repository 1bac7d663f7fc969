/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package key_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/did-auth-jose-go/pkg/authentication"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
	"github.com/trustbloc/did-auth-jose-go/pkg/vdr"
	"github.com/trustbloc/did-auth-jose-go/pkg/vdr/fingerprint"
	"github.com/trustbloc/did-auth-jose-go/pkg/vdr/key"
)

func TestVDR_Accept(t *testing.T) {
	v := key.New()
	require.True(t, v.Accept("key"))
	require.False(t, v.Accept("example"))
}

func TestCreateDIDKey(t *testing.T) {
	t.Run("secp256k1", func(t *testing.T) {
		priv, err := jwk.GenerateECPrivateKey("")
		require.NoError(t, err)

		didKey, keyID, err := key.CreateDIDKey(&priv.Private.PublicKey)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(didKey, "did:key:zQ3s"))
		require.Equal(t, didKey+"#"+strings.TrimPrefix(didKey, "did:key:"), keyID)
	})

	t.Run("other curves", func(t *testing.T) {
		priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)

		_, _, err = key.CreateDIDKey(&priv.PublicKey)
		require.Error(t, err)

		_, _, err = key.CreateDIDKey(nil)
		require.Error(t, err)
	})
}

func TestVDR_Resolve(t *testing.T) {
	priv, err := jwk.GenerateECPrivateKey("")
	require.NoError(t, err)

	didKey, keyID, err := key.CreateDIDKey(&priv.Private.PublicKey)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		docResolution, err := key.New().Resolve(didKey)
		require.NoError(t, err)

		doc := docResolution.DIDDocument
		require.Equal(t, didKey, doc.ID)
		require.Len(t, doc.PublicKey, 1)
		require.Equal(t, keyID, doc.PublicKey[0].ID)
		require.Equal(t, "EcdsaSecp256k1VerificationKey2019", doc.PublicKey[0].Type)

		pub, err := jwk.ECPublicKeyFromDescriptor(&doc.PublicKey[0])
		require.NoError(t, err)
		require.True(t, pub.Key.Equal(&priv.Private.PublicKey))
	})

	t.Run("invalid did", func(t *testing.T) {
		_, err := key.New().Resolve("not a did")
		require.Error(t, err)
	})

	t.Run("other method", func(t *testing.T) {
		_, err := key.New().Resolve("did:example:123")
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported method")
	})

	t.Run("other key type", func(t *testing.T) {
		_, err := key.New().Resolve("did:key:z6MkpTHR8VNsBxYAAWHut2Geadd9jSwuBV8xRoAnwWsdvktH")
		require.Error(t, err)
		require.Contains(t, err.Error(), "unsupported key multicodec code [0xed]")
	})

	t.Run("not a curve point", func(t *testing.T) {
		fp, err := fingerprint.KeyFingerprint(fingerprint.Secp256k1PubKeyMultiCodec, make([]byte, 33))
		require.NoError(t, err)

		_, err = key.New().Resolve("did:key:" + fp)
		require.ErrorIs(t, err, fingerprint.ErrInvalidFingerprint)
	})
}

func TestAuthenticationWithDIDKey(t *testing.T) {
	priv, err := jwk.GenerateECPrivateKey("")
	require.NoError(t, err)

	didKey, keyID, err := key.CreateDIDKey(&priv.Private.PublicKey)
	require.NoError(t, err)

	priv = jwk.NewECPrivateKey(keyID, priv.Private)

	auth, err := authentication.New(vdr.NewRegistry(vdr.WithResolver(key.DIDMethod, key.New())),
		authentication.WithKeys(priv))
	require.NoError(t, err)

	request := &authentication.Request{
		Issuer:       didKey,
		ResponseType: "id_token",
		ClientID:     "https://example.com",
		Scope:        "openid",
		Nonce:        "n-0S6",
	}

	token, err := auth.SignAuthenticationRequest(request)
	require.NoError(t, err)

	verified, err := auth.VerifyAuthenticationRequest([]byte(token))
	require.NoError(t, err)
	require.Equal(t, didKey, verified.Issuer)

	response, err := auth.FormAuthenticationResponse(verified, didKey, nil, time.Now().Add(time.Minute))
	require.NoError(t, err)

	resp, err := auth.VerifyAuthenticationResponse([]byte(response))
	require.NoError(t, err)
	require.Equal(t, didKey, resp.DID)
	require.Equal(t, "n-0S6", resp.Nonce)
}
