/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jose

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/trustbloc/did-auth-jose-go/pkg/crypto/suite"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
)

const jwsCompactParts = 3

// FlattenedJWS is the flattened JSON serialization of a JWS (https://tools.ietf.org/html/rfc7515#section-7.2.2).
type FlattenedJWS struct {
	Protected string  `json:"protected,omitempty"`
	Header    Headers `json:"header,omitempty"`
	Payload   string  `json:"payload"`
	Signature string  `json:"signature"`
}

type parsedJWS struct {
	protectedSegment string
	protected        Headers
	unprotected      Headers
	payloadSegment   string
	payload          []byte
	signature        []byte
}

// JWS is a signed token over some content. The content is parsed as a compact or flattened JWS when
// the token is created; content that does not parse can still be signed as a payload.
type JWS struct {
	content  []byte
	registry *suite.Registry
	parsed   *parsedJWS
	parseErr error
}

// NewJWS creates a JWS over content.
func NewJWS(content []byte, registry *suite.Registry) *JWS {
	j := &JWS{content: content, registry: registry}
	j.parsed, j.parseErr = parseJWS(content)

	return j
}

// Parsed reports whether the content was parsed as a JWS.
func (j *JWS) Parsed() bool {
	return j.parseErr == nil
}

// Header returns the merged header of a parsed JWS; protected values take precedence.
func (j *JWS) Header() Headers {
	if j.parsed == nil {
		return Headers{}
	}

	return mergeHeaders(j.parsed.unprotected, j.parsed.protected)
}

// Sign signs the content with key and returns the compact serialization. The header is headers
// with alg and kid defaulted from key.
func (j *JWS) Sign(key jwk.PrivateKey, headers Headers) (string, error) {
	header := mergeHeaders(headers)
	addSignDefaults(header, nil, key)

	alg, _ := header.Algorithm()

	protectedSegment, err := encodeHeaders(header)
	if err != nil {
		return "", fmt.Errorf("jws sign: %w", err)
	}

	payloadSegment := encodeSegment(j.content)

	sig, err := j.sign(alg, protectedSegment, payloadSegment, key)
	if err != nil {
		return "", err
	}

	return strings.Join([]string{protectedSegment, payloadSegment, encodeSegment(sig)}, "."), nil
}

// SignAsFlattenedJSON signs the content with key keeping the supplied protected and unprotected split.
// alg and kid are added to the protected header unless either header already has them.
func (j *JWS) SignAsFlattenedJSON(key jwk.PrivateKey, protected, unprotected Headers) (*FlattenedJWS, error) {
	protectedHeader := mergeHeaders(protected)
	addSignDefaults(protectedHeader, unprotected, key)

	alg, _ := mergeHeaders(unprotected, protectedHeader).Algorithm()

	protectedSegment, err := encodeHeaders(protectedHeader)
	if err != nil {
		return nil, fmt.Errorf("jws sign: %w", err)
	}

	payloadSegment := encodeSegment(j.content)

	sig, err := j.sign(alg, protectedSegment, payloadSegment, key)
	if err != nil {
		return nil, err
	}

	out := &FlattenedJWS{
		Protected: protectedSegment,
		Payload:   payloadSegment,
		Signature: encodeSegment(sig),
	}

	if len(unprotected) > 0 {
		out.Header = mergeHeaders(unprotected)
	}

	return out, nil
}

func addSignDefaults(protected, unprotected Headers, key jwk.PrivateKey) {
	if !protected.has(HeaderAlgorithm) && !unprotected.has(HeaderAlgorithm) {
		protected[HeaderAlgorithm] = key.DefaultSignAlgorithm()
	}

	if kid := key.KeyID(); kid != "" && !protected.has(HeaderKeyID) && !unprotected.has(HeaderKeyID) {
		protected[HeaderKeyID] = kid
	}
}

func (j *JWS) sign(alg, protectedSegment, payloadSegment string, key jwk.PrivateKey) ([]byte, error) {
	signer, err := j.registry.Signer(alg)
	if err != nil {
		return nil, fmt.Errorf("jws sign: %w", err)
	}

	sig, err := signer([]byte(protectedSegment+"."+payloadSegment), key)
	if err != nil {
		return nil, fmt.Errorf("jws sign: %w", err)
	}

	return sig, nil
}

// Verify checks the signature of a parsed JWS with publicKey and returns the payload.
func (j *JWS) Verify(publicKey jwk.PublicKey) ([]byte, error) {
	if j.parseErr != nil {
		return nil, fmt.Errorf("jws verify: %w", j.parseErr)
	}

	alg, ok := j.Header().Algorithm()
	if !ok {
		return nil, fmt.Errorf("jws verify: %w: alg", ErrMissingHeader)
	}

	verifier, err := j.registry.Verifier(alg)
	if err != nil {
		return nil, fmt.Errorf("jws verify: %w", err)
	}

	// the original protected segment is signed, never a re-encoding of it
	signingInput := []byte(j.parsed.protectedSegment + "." + j.parsed.payloadSegment)

	if !verifier(signingInput, j.parsed.signature, publicKey) {
		return nil, fmt.Errorf("jws verify: %w", ErrSignatureInvalid)
	}

	return j.parsed.payload, nil
}

// Compact returns the compact serialization of a parsed JWS.
func (j *JWS) Compact() (string, error) {
	if j.parseErr != nil {
		return "", fmt.Errorf("jws compact: %w", j.parseErr)
	}

	if !j.parsed.protected.has(HeaderAlgorithm) {
		return "", fmt.Errorf("jws compact: %w: protected header has no alg", ErrInvalidForCompactForm)
	}

	return strings.Join([]string{
		j.parsed.protectedSegment, j.parsed.payloadSegment, encodeSegment(j.parsed.signature),
	}, "."), nil
}

// FlattenedJSON returns the flattened JSON serialization of a parsed JWS with extraUnprotected
// merged into its unprotected header.
func (j *JWS) FlattenedJSON(extraUnprotected Headers) (*FlattenedJWS, error) {
	if j.parseErr != nil {
		return nil, fmt.Errorf("jws flattened: %w", j.parseErr)
	}

	unprotected := mergeHeaders(j.parsed.unprotected, extraUnprotected)

	if !j.parsed.protected.has(HeaderAlgorithm) && !unprotected.has(HeaderAlgorithm) {
		return nil, fmt.Errorf("jws flattened: %w: alg", ErrMissingHeader)
	}

	out := &FlattenedJWS{
		Protected: j.parsed.protectedSegment,
		Payload:   j.parsed.payloadSegment,
		Signature: encodeSegment(j.parsed.signature),
	}

	if len(unprotected) > 0 {
		out.Header = unprotected
	}

	return out, nil
}

type rawFlattenedJWS struct {
	Protected *string `json:"protected"`
	Header    Headers `json:"header"`
	Payload   *string `json:"payload"`
	Signature *string `json:"signature"`
}

func parseJWS(content []byte) (*parsedJWS, error) {
	trimmed := bytes.TrimSpace(content)

	if bytes.HasPrefix(trimmed, []byte("{")) {
		return parseFlattenedJWS(trimmed)
	}

	return parseCompactJWS(string(trimmed))
}

func parseCompactJWS(s string) (*parsedJWS, error) {
	parts := strings.Split(s, ".")
	if len(parts) != jwsCompactParts {
		return nil, fmt.Errorf("%w: compact JWS must have %d parts", ErrMalformedToken, jwsCompactParts)
	}

	if parts[0] == "" {
		return nil, fmt.Errorf("%w: compact JWS needs a protected header", ErrMalformedToken)
	}

	return newParsedJWS(parts[0], nil, parts[1], parts[2])
}

func parseFlattenedJWS(b []byte) (*parsedJWS, error) {
	var raw rawFlattenedJWS

	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if raw.Payload == nil || raw.Signature == nil || (raw.Protected == nil && raw.Header == nil) {
		return nil, fmt.Errorf("%w: flattened JWS needs payload, signature and a header", ErrMalformedToken)
	}

	protectedSegment := ""
	if raw.Protected != nil {
		protectedSegment = *raw.Protected
	}

	return newParsedJWS(protectedSegment, raw.Header, *raw.Payload, *raw.Signature)
}

func newParsedJWS(protectedSegment string, unprotected Headers, payloadSegment, signatureSegment string) (*parsedJWS, error) {
	protected, err := decodeHeaders(protectedSegment)
	if err != nil {
		return nil, fmt.Errorf("%w: protected header: %v", ErrMalformedToken, err)
	}

	payload, err := decodeSegment(payloadSegment)
	if err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrMalformedToken, err)
	}

	sig, err := decodeSegment(signatureSegment)
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrMalformedToken, err)
	}

	return &parsedJWS{
		protectedSegment: protectedSegment,
		protected:        protected,
		unprotected:      unprotected,
		payloadSegment:   payloadSegment,
		payload:          payload,
		signature:        sig,
	}, nil
}
