/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/did-auth-jose-go/pkg/crypto/suite"
	"github.com/trustbloc/did-auth-jose-go/pkg/crypto/suite/aessuite"
	"github.com/trustbloc/did-auth-jose-go/pkg/crypto/suite/rsasuite"
	"github.com/trustbloc/did-auth-jose-go/pkg/crypto/suite/secp256k1suite"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
)

// RFC 7516 Appendix A.1: RSAES-OAEP and AES GCM.
const (
	rfcJWK = `{"kty":"RSA",` +
		`"n":"oahUIoWw0K0usKNuOR6H4wkf4oBUXHTxRvgb48E-BVvxkeDNjbC4he8rUWcJoZmds2h7M70imEVhRU5djINXtqllXI4DFqc` +
		`I1DgjT9LewND8MW2Krf3Spsk_ZkoFnilakGygTwpZ3uesH-PFABNIUYpOiN15dsQRkgr0vEhxN92i2asbOenSZeyaxziK72UwxrrKoE` +
		`xv6kc5twXTq4h-QChLOln0_mtUZwfsRaMStPs6mS6XrgxnxbWhojf663tuEQueGC-FCMfra36C9knDFGzKsNa7LZK2djYgyD3JR_MB_` +
		`4NUJW_TqOQtwHYbxevoJArm-L5StowjzGy-_bq6Gw",` +
		`"e":"AQAB",` +
		`"d":"kLdtIj6GbDks_ApCSTYQtelcNttlKiOyPzMrXHeI-yk1F7-kpDxY4-WY5NWV5KntaEeXS1j82E375xxhWMHXyvjYecPT9fpwR` +
		`_M9gV8n9Hrh2anTpTD93Dt62ypW3yDsJzBnTnrYu1iwWRgBKrEYY46qAZIrA2xAwnm2X7uGR1hghkqDp0Vqj3kbSCz1XyfCs6_LehBw` +
		`txHIyh8Ripy40p24moOAbgxVw3rxT_vlt3UVe4WO3JkJOzlpUf-KTVI2Ptgm-dARxTEtE-id-4OJr0h-K-VFs3VSndVTIznSxfyrj8I` +
		`LL6MG_Uv8YAu7VILSB3lOW085-4qE3DzgrTjgyQ",` +
		`"p":"1r52Xk46c-LsfB5P442p7atdPUrxQSy4mti_tZI3Mgf2EuFVbUoDBvaRQ-SWxkbkmoEzL7JXroSBjSrK3YIQgYdMgyAEPTPjX` +
		`v_hI2_1eTSPVZfzL0lffNn03IXqWF5MDFuoUYE0hzb2vhrlN_rKrbfDIwUbTrjjgieRbwC6Cl0",` +
		`"q":"wLb35x7hmQWZsWJmB_vle87ihgZ19S8lBEROLIsZG4ayZVe9Hi9gDVCOBmUDdaDYVTSNx_8Fyw1YYa9XGrGnDew00J28cRUoe` +
		`BB_jKI1oma0Orv1T9aXIWxKwd4gvxFImOWr3QRL9KEBRzk2RatUBnmDZJTIAfwTs0g68UZHvtc",` +
		`"dp":"ZK-YwE7diUh0qR1tR7w8WHtolDx3MZ_OTowiFvgfeQ3SiresXjm9gZ5KLhMXvo-uz-KUJWDxS5pFQ_M0evdo1dKiRTjVw_x4N` +
		`yqyXPM5nULPkcpU827rnpZzAJKpdhWAgqrXGKAECQH0Xt4taznjnd_zVpAmZZq60WPMBMfKcuE",` +
		`"dq":"Dq0gfgJ1DdFGXiLvQEZnuKEN0UUmsJBxkjydc3j4ZYdBiMRAy86x0vHCjywcMlYYg4yoC4YZa9hNVcsjqA3FeiL19rk8g6Qn2` +
		`9Tt0cj8qqyFpz9vNDBUfCAiJVeESOjJDZPYHdHY8v1b-o-Z2X5tvLx-TCekf7oxyeKDUqKWjis",` +
		`"qi":"VIMpMYbPf47dT1w_zDUXfPimsSegnMOA1zTaX7aGk_8urY6R8-ZW1FxU7AlWAyLWybqq6t16VFd7hQd0y6flUK4SlOydB61gw` +
		`anOsXGOAOv82cHq0E3eL4HrtZkUuKvnPrMnsUUFlfUdybVzxyjz9JF_XyaY14ardLSjf4L_FNY"}`

	rfcPlaintext = "The true sign of intelligence is not knowledge but imagination."

	rfcCompactJWE = "eyJhbGciOiJSU0EtT0FFUCIsImVuYyI6IkEyNTZHQ00ifQ." +
		"OKOawDo13gRp2ojaHV7LFpZcgV7T6DVZKTyKOMTYUmKoTCVJRgckCL9kiMT03JGeipsEdY3mx_etLbbWSrFr05kLzcSr4qKAq7YN7e9" +
		"jwQRb23nfa6c9d-StnImGyFDbSv04uVuxIp5Zms1gNxKKK2Da14B8S4rzVRltdYwam_lDp5XnZAYpQdb76FdIKLaVmqgfwX7XWRxv2" +
		"322i-vDxRfqNzo_tETKzpVLzfiwQyeyPGLBIO56YJ7eObdv0je81860ppamavo35UgoRdbYaBcoh9QcfylQr66oc6vFWXRcZ_ZT2Law" +
		"VCWTIy3brGPi6UklfCpIMfIjf7iGdXKHzg." +
		"48V1_ALb6US04U3b." +
		"5eym8TW_c8SuK0ltJ3rpYIzOeDQz7TALvtu6UG9oMo4vpzs9tX_EFShS8iB7j6jiSdiwkIr3ajwQzaBtQD_A." +
		"XFBoMYUZodetZdvTiFvSkQ"
)

var (
	rfcCEK = []byte{
		177, 161, 244, 128, 84, 143, 225, 115, 63, 180, 3, 255, 107, 154, 212, 246,
		138, 7, 110, 91, 112, 46, 34, 105, 47, 130, 203, 46, 122, 234, 64, 252,
	}
	rfcIV = []byte{227, 197, 117, 252, 2, 219, 233, 68, 180, 225, 77, 219}
)

func rfcKey(t *testing.T) jwk.PrivateKey {
	t.Helper()

	key, err := jwk.ParsePrivateKey("", []byte(rfcJWK))
	require.NoError(t, err)
	require.Empty(t, key.KeyID())

	return key
}

func TestJWE_RFC7516AppendixA1(t *testing.T) {
	key := rfcKey(t)

	t.Run("encrypt", func(t *testing.T) {
		random := bytes.NewReader(append(append([]byte{}, rfcCEK...), rfcIV...))
		registry := suite.NewRegistry([]suite.Suite{
			aessuite.New(aessuite.WithRandom(random)), rsasuite.New(), secp256k1suite.New(),
		})

		token, err := NewJWE([]byte(rfcPlaintext), registry).
			Encrypt(key.Public(), Headers{HeaderAlgorithm: "RSA-OAEP", HeaderEncryption: "A256GCM"})
		require.NoError(t, err)

		got := strings.Split(token, ".")
		expected := strings.Split(rfcCompactJWE, ".")
		require.Len(t, got, 5)

		// the wrapped key is randomized by OAEP
		require.Equal(t, expected[0], got[0])
		require.Equal(t, expected[2], got[2])
		require.Equal(t, expected[3], got[3])
		require.Equal(t, expected[4], got[4])

		plaintext, err := NewJWE([]byte(token), newRegistry()).Decrypt(key)
		require.NoError(t, err)
		require.Equal(t, rfcPlaintext, string(plaintext))
	})

	t.Run("decrypt", func(t *testing.T) {
		jwe := NewJWE([]byte(rfcCompactJWE), newRegistry())
		require.True(t, jwe.Parsed())

		plaintext, err := jwe.Decrypt(key)
		require.NoError(t, err)
		require.Equal(t, rfcPlaintext, string(plaintext))

		compact, err := jwe.Compact()
		require.NoError(t, err)
		require.Equal(t, rfcCompactJWE, compact)
	})
}

func TestJWE_RoundTrip(t *testing.T) {
	key := newRSAKey(t, rsaKID)

	for _, enc := range []string{
		aessuite.A128GCM, aessuite.A192GCM, aessuite.A256GCM,
		aessuite.A128CBCHS256, aessuite.A192CBCHS384, aessuite.A256CBCHS512,
	} {
		enc := enc

		t.Run(enc, func(t *testing.T) {
			registry := newRegistry(suite.WithDefaultSymmetricAlgorithm(enc))

			token, err := NewJWE(payload, registry).Encrypt(key.Public(), nil)
			require.NoError(t, err)

			jwe := NewJWE([]byte(token), registry)
			require.Equal(t, Headers{HeaderAlgorithm: "RSA-OAEP", HeaderEncryption: enc, HeaderKeyID: rsaKID}, jwe.Header())

			plaintext, err := jwe.Decrypt(key)
			require.NoError(t, err)
			require.Equal(t, payload, plaintext)
		})
	}

	t.Run("default enc", func(t *testing.T) {
		token, err := NewJWE(payload, newRegistry()).Encrypt(key.Public(), nil)
		require.NoError(t, err)

		enc, _ := NewJWE([]byte(token), newRegistry()).Header().Encryption()
		require.Equal(t, "A128GCM", enc)
	})

	t.Run("EC keys cannot encrypt", func(t *testing.T) {
		_, err := NewJWE(payload, newRegistry()).Encrypt(newECKey(t, ecKID).Public(), nil)
		require.ErrorIs(t, err, suite.ErrUnsupportedAlgorithm)
	})

	t.Run("unsupported enc", func(t *testing.T) {
		_, err := NewJWE(payload, newRegistry()).Encrypt(key.Public(), Headers{HeaderEncryption: "XC20P"})
		require.ErrorIs(t, err, suite.ErrUnsupportedAlgorithm)
	})
}

func TestJWE_Flattened(t *testing.T) {
	registry := newRegistry()
	key := newRSAKey(t, rsaKID)

	t.Run("with aad", func(t *testing.T) {
		flat, err := NewJWE(payload, registry).EncryptAsFlattenedJSON(key.Public(), FlattenedOptions{
			Protected:   Headers{HeaderEncryption: "A256CBC-HS512"},
			Unprotected: Headers{"jku": "https://example.com/keys"},
			AAD:         []byte("request-42"),
		})
		require.NoError(t, err)
		require.Equal(t, encodeSegment([]byte("request-42")), flat.AAD)
		require.Equal(t, Headers{"jku": "https://example.com/keys"}, flat.Unprotected)

		protected, err := decodeHeaders(flat.Protected)
		require.NoError(t, err)
		require.Equal(t, Headers{HeaderAlgorithm: "RSA-OAEP", HeaderEncryption: "A256CBC-HS512", HeaderKeyID: rsaKID},
			protected)

		raw, err := json.Marshal(flat)
		require.NoError(t, err)

		jwe := NewJWE(raw, registry)
		require.True(t, jwe.Parsed())
		require.Equal(t, "https://example.com/keys", jwe.Header()["jku"])

		plaintext, err := jwe.Decrypt(key)
		require.NoError(t, err)
		require.Equal(t, payload, plaintext)

		_, err = jwe.Compact()
		require.ErrorIs(t, err, ErrInvalidForCompactForm)

		out, err := jwe.FlattenedJSON(Headers{"x": "y"})
		require.NoError(t, err)
		require.Equal(t, flat.AAD, out.AAD)
		require.Equal(t, "y", out.Unprotected["x"])

		t.Run("aad is authenticated", func(t *testing.T) {
			flat := *flat
			flat.AAD = encodeSegment([]byte("request-43"))

			raw, err := json.Marshal(&flat)
			require.NoError(t, err)

			_, err = NewJWE(raw, registry).Decrypt(key)
			require.ErrorIs(t, err, suite.ErrIntegrity)
		})
	})

	t.Run("compact from flattened without aad", func(t *testing.T) {
		flat, err := NewJWE(payload, registry).EncryptAsFlattenedJSON(key.Public(), FlattenedOptions{})
		require.NoError(t, err)
		require.Empty(t, flat.AAD)
		require.Nil(t, flat.Unprotected)

		raw, err := json.Marshal(flat)
		require.NoError(t, err)

		compact, err := NewJWE(raw, registry).Compact()
		require.NoError(t, err)

		plaintext, err := NewJWE([]byte(compact), registry).Decrypt(key)
		require.NoError(t, err)
		require.Equal(t, payload, plaintext)
	})

	t.Run("unprotected alg does not suppress protected defaults", func(t *testing.T) {
		flat, err := NewJWE(payload, registry).EncryptAsFlattenedJSON(key.Public(), FlattenedOptions{
			Unprotected: Headers{HeaderAlgorithm: "RSA-OAEP", HeaderEncryption: "A256GCM"},
		})
		require.NoError(t, err)
		require.Equal(t, Headers{HeaderAlgorithm: "RSA-OAEP", HeaderEncryption: "A256GCM"}, flat.Unprotected)

		protected, err := decodeHeaders(flat.Protected)
		require.NoError(t, err)
		require.Equal(t, Headers{HeaderAlgorithm: "RSA-OAEP", HeaderEncryption: "A128GCM", HeaderKeyID: rsaKID},
			protected)

		raw, err := json.Marshal(flat)
		require.NoError(t, err)

		jwe := NewJWE(raw, registry)

		compact, err := jwe.Compact()
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(compact, flat.Protected+"."))

		plaintext, err := jwe.Decrypt(key)
		require.NoError(t, err)
		require.Equal(t, payload, plaintext)
	})

	t.Run("unprotected alg is not compact", func(t *testing.T) {
		jwe := NewJWE([]byte(unprotectedOnlyJWE(t, registry, key.Public())), registry)
		require.True(t, jwe.Parsed())

		_, err := jwe.Compact()
		require.ErrorIs(t, err, ErrInvalidForCompactForm)

		plaintext, err := jwe.Decrypt(key)
		require.NoError(t, err)
		require.Equal(t, payload, plaintext)
	})
}

// unprotectedOnlyJWE returns a flattened JWE whose headers all sit in the per-recipient header.
func unprotectedOnlyJWE(t *testing.T, registry *suite.Registry, key jwk.PublicKey) string {
	t.Helper()

	header := Headers{HeaderAlgorithm: "RSA-OAEP", HeaderEncryption: "A128GCM", HeaderKeyID: rsaKID}

	res, encryptedKey, err := NewJWE(payload, registry).encrypt(header, "", "", key)
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]interface{}{
		"header":        header,
		"encrypted_key": encodeSegment(encryptedKey),
		"iv":            encodeSegment(res.IV),
		"ciphertext":    encodeSegment(res.Ciphertext),
		"tag":           encodeSegment(res.Tag),
	})
	require.NoError(t, err)

	return string(raw)
}

func encryptWithHeaders(t *testing.T, registry *suite.Registry, key jwk.PublicKey, h Headers) string {
	t.Helper()

	token, err := NewJWE(payload, registry).Encrypt(key, h)
	require.NoError(t, err)

	return token
}

func TestJWE_DecryptErrors(t *testing.T) {
	registry := newRegistry()
	key := newRSAKey(t, rsaKID)

	t.Run("tampered segments", func(t *testing.T) {
		token := encryptWithHeaders(t, registry, key.Public(), nil)
		parts := strings.Split(token, ".")

		for i := 2; i < 5; i++ {
			b, err := decodeSegment(parts[i])
			require.NoError(t, err)

			b[0] ^= 1

			tampered := append([]string{}, parts...)
			tampered[i] = encodeSegment(b)

			_, err = NewJWE([]byte(strings.Join(tampered, ".")), registry).Decrypt(key)
			require.ErrorIs(t, err, suite.ErrIntegrity, "segment %d", i)
		}

		// a re-encoded protected header changes the aad
		tampered := append([]string{}, parts...)
		tampered[0] = encodeSegment([]byte(`{"alg":"RSA-OAEP","enc":"A128GCM", "kid":"` + rsaKID + `"}`))

		_, err := NewJWE([]byte(strings.Join(tampered, ".")), registry).Decrypt(key)
		require.ErrorIs(t, err, suite.ErrIntegrity)
	})

	t.Run("key mismatch", func(t *testing.T) {
		token := encryptWithHeaders(t, registry, key.Public(), nil)

		other := newRSAKey(t, "did:example:other#keys-1")

		_, err := NewJWE([]byte(token), registry).Decrypt(other)
		require.ErrorIs(t, err, ErrKeyMismatch)
	})

	t.Run("crit", func(t *testing.T) {
		token := encryptWithHeaders(t, registry, key.Public(), Headers{HeaderCritical: []string{"exp"}})

		_, err := NewJWE([]byte(token), registry).Decrypt(key)
		require.ErrorIs(t, err, ErrUnsupportedExtension)

		plaintext, err := NewJWE([]byte(token), registry, WithSupportedExtensions("exp")).Decrypt(key)
		require.NoError(t, err)
		require.Equal(t, payload, plaintext)

		token = encryptWithHeaders(t, registry, key.Public(), Headers{HeaderCritical: "exp"})

		_, err = NewJWE([]byte(token), registry, WithSupportedExtensions("exp")).Decrypt(key)
		require.ErrorIs(t, err, ErrMalformedHeader)
	})

	t.Run("zip", func(t *testing.T) {
		token := encryptWithHeaders(t, registry, key.Public(), Headers{HeaderCompression: "DEF"})

		_, err := NewJWE([]byte(token), registry).Decrypt(key)
		require.ErrorIs(t, err, ErrUnsupportedExtension)
	})

	t.Run("missing headers", func(t *testing.T) {
		parts := strings.Split(encryptWithHeaders(t, registry, key.Public(), nil), ".")

		for name, header := range map[string]string{
			"alg": `{"enc":"A128GCM"}`,
			"enc": `{"alg":"RSA-OAEP"}`,
		} {
			parts[0] = encodeSegment([]byte(header))

			_, err := NewJWE([]byte(strings.Join(parts, ".")), registry).Decrypt(key)
			require.ErrorIs(t, err, ErrMissingHeader, name)
		}
	})

	t.Run("unsupported algorithms", func(t *testing.T) {
		parts := strings.Split(encryptWithHeaders(t, registry, key.Public(), nil), ".")

		for _, header := range []string{`{"alg":"RSA1_5","enc":"A128GCM"}`, `{"alg":"RSA-OAEP","enc":"XC20P"}`} {
			parts[0] = encodeSegment([]byte(header))

			_, err := NewJWE([]byte(strings.Join(parts, ".")), registry).Decrypt(key)
			require.ErrorIs(t, err, suite.ErrUnsupportedAlgorithm)
		}
	})
}

func TestJWE_Parse(t *testing.T) {
	registry := newRegistry()
	key := newRSAKey(t, rsaKID)

	for name, content := range map[string]string{
		"plain text":         "hello",
		"four segments":      "a.b.c.d",
		"bad header":         "bm90IGpzb24.a.b.c.d",
		"bad segment":        "eyJhbGciOiJSU0EtT0FFUCJ9.!!.b.c.d",
		"recipients":         `{"protected":"e30","recipients":[{"encrypted_key":"YQ"}],"iv":"YQ","ciphertext":"YQ","tag":"YQ"}`,
		"missing tag":        `{"protected":"e30","encrypted_key":"YQ","iv":"YQ","ciphertext":"YQ"}`,
		"missing headers":    `{"encrypted_key":"YQ","iv":"YQ","ciphertext":"YQ","tag":"YQ"}`,
		"wrong field type":   `{"protected":"e30","encrypted_key":"YQ","iv":1,"ciphertext":"YQ","tag":"YQ"}`,
		"unprotected string": `{"unprotected":"x","encrypted_key":"YQ","iv":"YQ","ciphertext":"YQ","tag":"YQ"}`,
		"bad aad":            `{"protected":"e30","encrypted_key":"YQ","iv":"YQ","ciphertext":"YQ","tag":"YQ","aad":"!!"}`,
	} {
		content := content

		t.Run(name, func(t *testing.T) {
			jwe := NewJWE([]byte(content), registry)
			require.False(t, jwe.Parsed())
			require.Empty(t, jwe.Header())

			_, err := jwe.Decrypt(key)
			require.ErrorIs(t, err, ErrMalformedToken)

			_, err = jwe.Compact()
			require.ErrorIs(t, err, ErrMalformedToken)

			_, err = jwe.FlattenedJSON(nil)
			require.ErrorIs(t, err, ErrMalformedToken)
		})
	}

	t.Run("header only in per-recipient header", func(t *testing.T) {
		jwe := NewJWE([]byte(unprotectedOnlyJWE(t, registry, key.Public())), registry)
		require.True(t, jwe.Parsed())

		plaintext, err := jwe.Decrypt(key)
		require.NoError(t, err)
		require.Equal(t, payload, plaintext)
	})
}
