/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/did-auth-jose-go/pkg/crypto/suite"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
)

var payload = []byte(`{"iss":"did:example:123456789abcdefghi","nonce":"n-0S6_WzA2Mj"}`)

func TestJWS_SignVerify(t *testing.T) {
	registry := newRegistry()

	keys := map[string]jwk.PrivateKey{
		"RS256":  newRSAKey(t, rsaKID),
		"ES256K": newECKey(t, ecKID),
	}

	for name, key := range keys {
		name, key := name, key

		t.Run(name, func(t *testing.T) {
			token, err := NewJWS(payload, registry).Sign(key, nil)
			require.NoError(t, err)
			require.Len(t, strings.Split(token, "."), 3)

			jws := NewJWS([]byte(token), registry)
			require.True(t, jws.Parsed())

			alg, _ := jws.Header().Algorithm()
			require.Equal(t, name, alg)

			kid, _ := jws.Header().KeyID()
			require.Equal(t, key.KeyID(), kid)

			content, err := jws.Verify(key.Public())
			require.NoError(t, err)
			require.Equal(t, payload, content)

			compact, err := jws.Compact()
			require.NoError(t, err)
			require.Equal(t, token, compact)
		})
	}

	t.Run("RS512 from header", func(t *testing.T) {
		key := keys["RS256"]

		token, err := NewJWS(payload, registry).Sign(key, Headers{HeaderAlgorithm: "RS512", "custom": "value"})
		require.NoError(t, err)

		jws := NewJWS([]byte(token), registry)
		alg, _ := jws.Header().Algorithm()
		require.Equal(t, "RS512", alg)
		require.Equal(t, "value", jws.Header()["custom"])

		content, err := jws.Verify(key.Public())
		require.NoError(t, err)
		require.Equal(t, payload, content)
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		_, err := NewJWS(payload, registry).Sign(keys["RS256"], Headers{HeaderAlgorithm: "HS256"})
		require.ErrorIs(t, err, suite.ErrUnsupportedAlgorithm)

		token := encodeSegment([]byte(`{"alg":"HS256"}`)) + "." + encodeSegment(payload) + ".c2ln"

		_, err = NewJWS([]byte(token), registry).Verify(keys["RS256"].Public())
		require.ErrorIs(t, err, suite.ErrUnsupportedAlgorithm)
	})
}

func TestJWS_Tampering(t *testing.T) {
	registry := newRegistry()
	key := newRSAKey(t, rsaKID)

	token, err := NewJWS(payload, registry).Sign(key, nil)
	require.NoError(t, err)

	parts := strings.Split(token, ".")

	t.Run("payload", func(t *testing.T) {
		tampered := parts[0] + "." + encodeSegment([]byte(`{"iss":"did:example:mallory"}`)) + "." + parts[2]

		_, err := NewJWS([]byte(tampered), registry).Verify(key.Public())
		require.ErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("signature", func(t *testing.T) {
		sig, err := decodeSegment(parts[2])
		require.NoError(t, err)

		sig[10] ^= 0xff
		tampered := parts[0] + "." + parts[1] + "." + encodeSegment(sig)

		_, err = NewJWS([]byte(tampered), registry).Verify(key.Public())
		require.ErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("wrong key", func(t *testing.T) {
		_, err := NewJWS([]byte(token), registry).Verify(newRSAKey(t, rsaKID).Public())
		require.ErrorIs(t, err, ErrSignatureInvalid)
	})
}

func TestJWS_Flattened(t *testing.T) {
	registry := newRegistry()
	key := newECKey(t, ecKID)

	t.Run("defaults go to protected", func(t *testing.T) {
		flat, err := NewJWS(payload, registry).SignAsFlattenedJSON(key, nil, Headers{"x-trace": "abc"})
		require.NoError(t, err)
		require.NotEmpty(t, flat.Protected)
		require.Equal(t, Headers{"x-trace": "abc"}, flat.Header)

		protected, err := decodeHeaders(flat.Protected)
		require.NoError(t, err)
		require.Equal(t, Headers{HeaderAlgorithm: "ES256K", HeaderKeyID: ecKID}, protected)

		raw, err := json.Marshal(flat)
		require.NoError(t, err)

		jws := NewJWS(raw, registry)
		require.True(t, jws.Parsed())
		require.Equal(t, "abc", jws.Header()["x-trace"])

		content, err := jws.Verify(key.Public())
		require.NoError(t, err)
		require.Equal(t, payload, content)
	})

	t.Run("unprotected alg and kid stay unprotected", func(t *testing.T) {
		flat, err := NewJWS(payload, registry).SignAsFlattenedJSON(key, nil,
			Headers{HeaderAlgorithm: "ES256K", HeaderKeyID: ecKID})
		require.NoError(t, err)
		require.Empty(t, flat.Protected)

		raw, err := json.Marshal(flat)
		require.NoError(t, err)

		jws := NewJWS(raw, registry)

		content, err := jws.Verify(key.Public())
		require.NoError(t, err)
		require.Equal(t, payload, content)

		_, err = jws.Compact()
		require.ErrorIs(t, err, ErrInvalidForCompactForm)

		out, err := jws.FlattenedJSON(Headers{"extra": true})
		require.NoError(t, err)
		require.Equal(t, true, out.Header["extra"])
		require.Equal(t, "ES256K", out.Header[HeaderAlgorithm])
	})

	t.Run("compact to flattened", func(t *testing.T) {
		token, err := NewJWS(payload, registry).Sign(key, nil)
		require.NoError(t, err)

		out, err := NewJWS([]byte(token), registry).FlattenedJSON(nil)
		require.NoError(t, err)
		require.Nil(t, out.Header)
		require.Equal(t, token, strings.Join([]string{out.Protected, out.Payload, out.Signature}, "."))
	})

	t.Run("flattened without alg", func(t *testing.T) {
		raw := `{"header":{"kid":"k"},"payload":"` + encodeSegment(payload) + `","signature":"c2ln"}`

		jws := NewJWS([]byte(raw), registry)
		require.True(t, jws.Parsed())

		_, err := jws.FlattenedJSON(nil)
		require.ErrorIs(t, err, ErrMissingHeader)

		_, err = jws.Verify(key.Public())
		require.ErrorIs(t, err, ErrMissingHeader)
	})
}

func TestJWS_Parse(t *testing.T) {
	registry := newRegistry()
	key := newRSAKey(t, rsaKID)

	for name, content := range map[string]string{
		"plain text":            "hello",
		"two segments":          "eyJhbGciOiJSUzI1NiJ9.cGF5bG9hZA",
		"empty protected":       ".cGF5bG9hZA.c2ln",
		"bad header json":       encodeSegment([]byte("not json")) + ".cGF5bG9hZA.c2ln",
		"bad payload encoding":  "eyJhbGciOiJSUzI1NiJ9.!!!.c2ln",
		"json without payload":  `{"protected":"eyJhbGciOiJSUzI1NiJ9","signature":"c2ln"}`,
		"json without header":   `{"payload":"cGF5bG9hZA","signature":"c2ln"}`,
		"json with wrong types": `{"protected":1,"payload":"cGF5bG9hZA","signature":"c2ln"}`,
		"invalid json":          `{"protected":`,
	} {
		content := content

		t.Run(name, func(t *testing.T) {
			jws := NewJWS([]byte(content), registry)
			require.False(t, jws.Parsed())
			require.Empty(t, jws.Header())

			_, err := jws.Verify(key.Public())
			require.ErrorIs(t, err, ErrMalformedToken)

			_, err = jws.Compact()
			require.ErrorIs(t, err, ErrMalformedToken)

			_, err = jws.FlattenedJSON(nil)
			require.ErrorIs(t, err, ErrMalformedToken)

			// unparsed content is still signable as a payload
			token, err := jws.Sign(key, nil)
			require.NoError(t, err)

			signed, err := NewJWS([]byte(token), registry).Verify(key.Public())
			require.NoError(t, err)
			require.Equal(t, content, string(signed))
		})
	}
}
