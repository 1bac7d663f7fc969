/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jose implements JSON Web Signature (RFC 7515) and JSON Web Encryption (RFC 7516) tokens
// in their compact and flattened JSON serializations, with algorithms supplied by a suite.Registry.
package jose

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// IANA registered JOSE headers (https://tools.ietf.org/html/rfc7515#section-4.1)
const (
	// HeaderAlgorithm identifies:
	// For JWS: the cryptographic algorithm used to secure the JWS.
	// For JWE: the cryptographic algorithm used to encrypt or determine the value of the CEK.
	HeaderAlgorithm = "alg" // string

	// HeaderEncryption identifies the JWE content encryption algorithm.
	HeaderEncryption = "enc" // string

	// HeaderKeyID is a hint:
	// For JWS: indicating which key was used to secure the JWS.
	// For JWE: which references the public key to which the JWE was encrypted.
	HeaderKeyID = "kid" // string

	// HeaderType declares the media type of the complete token.
	HeaderType = "typ" // string

	// HeaderContentType declares the media type of the secured content.
	HeaderContentType = "cty" // string

	// HeaderCritical lists extensions that MUST be understood and processed.
	HeaderCritical = "crit" // array

	// HeaderCompression names the compression applied to the JWE plaintext. Not supported.
	HeaderCompression = "zip" // string
)

// Protocol headers carried by DID authenticated requests.
const (
	HeaderRequesterNonce = "did-requester-nonce"
	HeaderAccessToken    = "did-access-token"
)

var (
	// ErrMalformedToken is returned when a token could not be parsed.
	ErrMalformedToken = errors.New("malformed token")
	// ErrMissingHeader is returned when a required header is absent.
	ErrMissingHeader = errors.New("missing header")
	// ErrMalformedHeader is returned when a header has the wrong shape.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrUnsupportedExtension is returned for crit extensions or features that are not supported.
	ErrUnsupportedExtension = errors.New("unsupported extension")
	// ErrKeyMismatch is returned when the token's kid differs from the key's id.
	ErrKeyMismatch = errors.New("key mismatch")
	// ErrSignatureInvalid is returned when signature verification fails.
	ErrSignatureInvalid = errors.New("signature invalid")
	// ErrInvalidForCompactForm is returned when a token cannot be expressed in compact serialization.
	ErrInvalidForCompactForm = errors.New("invalid for compact form")
)

// Headers represents JOSE headers.
type Headers map[string]interface{}

// KeyID gets Key ID from JOSE headers.
func (h Headers) KeyID() (string, bool) {
	return h.stringValue(HeaderKeyID)
}

// Algorithm gets Algorithm from JOSE headers.
func (h Headers) Algorithm() (string, bool) {
	return h.stringValue(HeaderAlgorithm)
}

// Encryption gets content encryption algorithm from JOSE headers.
func (h Headers) Encryption() (string, bool) {
	return h.stringValue(HeaderEncryption)
}

// Type gets the token type from JOSE headers.
func (h Headers) Type() (string, bool) {
	return h.stringValue(HeaderType)
}

// ContentType gets the payload content type from JOSE headers.
func (h Headers) ContentType() (string, bool) {
	return h.stringValue(HeaderContentType)
}

// Critical gets the crit extension names. It fails with ErrMalformedHeader if crit is not an array of strings.
func (h Headers) Critical() ([]string, bool, error) {
	raw, ok := h[HeaderCritical]
	if !ok {
		return nil, false, nil
	}

	var names []string

	switch v := raw.(type) {
	case []string:
		names = v
	case []interface{}:
		for _, n := range v {
			s, isString := n.(string)
			if !isString {
				return nil, true, fmt.Errorf("%w: crit entries must be strings", ErrMalformedHeader)
			}

			names = append(names, s)
		}
	default:
		return nil, true, fmt.Errorf("%w: crit must be an array", ErrMalformedHeader)
	}

	return names, true, nil
}

func (h Headers) stringValue(key string) (string, bool) {
	raw, ok := h[key]
	if !ok {
		return "", false
	}

	str, ok := raw.(string)

	return str, ok
}

func (h Headers) has(key string) bool {
	_, ok := h[key]

	return ok
}

// mergeHeaders layers the given headers left to right; later values win.
func mergeHeaders(layers ...Headers) Headers {
	merged := Headers{}

	for _, l := range layers {
		for k, v := range l {
			merged[k] = v
		}
	}

	return merged
}

// marshalHeaders encodes headers with sorted keys and without HTML escaping.
func marshalHeaders(h Headers) ([]byte, error) {
	buf := &bytes.Buffer{}

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(h); err != nil {
		return nil, fmt.Errorf("marshal headers: %w", err)
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func encodeHeaders(h Headers) (string, error) {
	if len(h) == 0 {
		return "", nil
	}

	b, err := marshalHeaders(h)
	if err != nil {
		return "", err
	}

	return encodeSegment(b), nil
}

func decodeHeaders(segment string) (Headers, error) {
	if segment == "" {
		return nil, nil
	}

	b, err := decodeSegment(segment)
	if err != nil {
		return nil, err
	}

	var h Headers

	if err := json.Unmarshal(b, &h); err != nil {
		return nil, fmt.Errorf("unmarshal headers: %w", err)
	}

	return h, nil
}

func encodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeSegment(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
	if err != nil {
		return nil, fmt.Errorf("decode segment: %w", err)
	}

	return b, nil
}
