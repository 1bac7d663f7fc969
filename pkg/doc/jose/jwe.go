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

const jweCompactParts = 5

// FlattenedJWE is the flattened JSON serialization of a JWE (https://tools.ietf.org/html/rfc7516#section-7.2.2).
type FlattenedJWE struct {
	Protected    string  `json:"protected,omitempty"`
	Unprotected  Headers `json:"unprotected,omitempty"`
	Header       Headers `json:"header,omitempty"`
	EncryptedKey string  `json:"encrypted_key"`
	IV           string  `json:"iv"`
	Ciphertext   string  `json:"ciphertext"`
	Tag          string  `json:"tag"`
	AAD          string  `json:"aad,omitempty"`
}

// FlattenedOptions are the caller supplied parts of a flattened JWE.
type FlattenedOptions struct {
	Protected   Headers
	Unprotected Headers
	// AAD is additional authenticated data appended to the protected header segment.
	AAD []byte
}

type parsedJWE struct {
	protectedSegment string
	protected        Headers
	unprotected      Headers
	recipient        Headers
	encryptedKey     []byte
	iv               []byte
	ciphertext       []byte
	tag              []byte
	aadSegment       string
}

// aad is the protected segment, followed by "." and the encoded caller AAD when one was given.
func (p *parsedJWE) aad() []byte {
	return jweAAD(p.protectedSegment, p.aadSegment)
}

func jweAAD(protectedSegment, aadSegment string) []byte {
	if aadSegment == "" {
		return []byte(protectedSegment)
	}

	return []byte(protectedSegment + "." + aadSegment)
}

// JWEOption configures a JWE.
type JWEOption func(j *JWE)

// WithSupportedExtensions adds names accepted in the crit header.
func WithSupportedExtensions(names ...string) JWEOption {
	return func(j *JWE) {
		for _, n := range names {
			j.extensions[n] = struct{}{}
		}
	}
}

// JWE is an encrypted token. Content is parsed as a compact or flattened JWE when the token is
// created; content that does not parse can still be encrypted as plaintext.
type JWE struct {
	content    []byte
	registry   *suite.Registry
	extensions map[string]struct{}
	parsed     *parsedJWE
	parseErr   error
}

// NewJWE creates a JWE over content.
func NewJWE(content []byte, registry *suite.Registry, opts ...JWEOption) *JWE {
	j := &JWE{content: content, registry: registry, extensions: map[string]struct{}{}}

	for _, opt := range opts {
		opt(j)
	}

	j.parsed, j.parseErr = parseJWE(content)

	return j
}

// Parsed reports whether the content was parsed as a JWE.
func (j *JWE) Parsed() bool {
	return j.parseErr == nil
}

// Header returns the merged header of a parsed JWE; protected values take precedence.
func (j *JWE) Header() Headers {
	if j.parsed == nil {
		return Headers{}
	}

	return mergeHeaders(j.parsed.recipient, j.parsed.unprotected, j.parsed.protected)
}

// Encrypt encrypts the content to publicKey and returns the compact serialization. kid, alg and enc
// default to the key id, the key's default encryption algorithm and the registry's default content
// encryption algorithm.
func (j *JWE) Encrypt(publicKey jwk.PublicKey, headers Headers) (string, error) {
	header := mergeHeaders(headers)
	j.addEncryptDefaults(header, publicKey)

	protectedSegment, err := encodeHeaders(header)
	if err != nil {
		return "", fmt.Errorf("jwe encrypt: %w", err)
	}

	res, encryptedKey, err := j.encrypt(header, protectedSegment, "", publicKey)
	if err != nil {
		return "", err
	}

	return strings.Join([]string{
		protectedSegment,
		encodeSegment(encryptedKey),
		encodeSegment(res.IV),
		encodeSegment(res.Ciphertext),
		encodeSegment(res.Tag),
	}, "."), nil
}

// EncryptAsFlattenedJSON encrypts the content to publicKey keeping the supplied header split.
// kid, alg and enc always default in the protected header; the protected header decides the
// algorithms even when the unprotected header names them too.
func (j *JWE) EncryptAsFlattenedJSON(publicKey jwk.PublicKey, opts FlattenedOptions) (*FlattenedJWE, error) {
	protected := mergeHeaders(opts.Protected)
	j.addEncryptDefaults(protected, publicKey)

	protectedSegment, err := encodeHeaders(protected)
	if err != nil {
		return nil, fmt.Errorf("jwe encrypt: %w", err)
	}

	aadSegment := ""
	if len(opts.AAD) > 0 {
		aadSegment = encodeSegment(opts.AAD)
	}

	res, encryptedKey, err := j.encrypt(mergeHeaders(opts.Unprotected, protected), protectedSegment, aadSegment, publicKey)
	if err != nil {
		return nil, err
	}

	out := &FlattenedJWE{
		Protected:    protectedSegment,
		EncryptedKey: encodeSegment(encryptedKey),
		IV:           encodeSegment(res.IV),
		Ciphertext:   encodeSegment(res.Ciphertext),
		Tag:          encodeSegment(res.Tag),
		AAD:          aadSegment,
	}

	if len(opts.Unprotected) > 0 {
		out.Unprotected = mergeHeaders(opts.Unprotected)
	}

	return out, nil
}

func (j *JWE) addEncryptDefaults(protected Headers, key jwk.PublicKey) {
	if kid := key.KeyID(); kid != "" && !protected.has(HeaderKeyID) {
		protected[HeaderKeyID] = kid
	}

	if !protected.has(HeaderAlgorithm) {
		protected[HeaderAlgorithm] = key.DefaultEncryptionAlgorithm()
	}

	if !protected.has(HeaderEncryption) {
		protected[HeaderEncryption] = j.registry.DefaultSymmetricAlgorithm()
	}
}

func (j *JWE) encrypt(header Headers, protectedSegment, aadSegment string,
	key jwk.PublicKey) (*suite.SymmetricEncryptionResult, []byte, error) {
	alg, _ := header.Algorithm()
	enc, _ := header.Encryption()

	wrap, err := j.registry.AsymmetricEncrypter(alg)
	if err != nil {
		return nil, nil, fmt.Errorf("jwe encrypt: %w", err)
	}

	contentEncrypt, err := j.registry.SymmetricEncrypter(enc)
	if err != nil {
		return nil, nil, fmt.Errorf("jwe encrypt: %w", err)
	}

	res, err := contentEncrypt(j.content, jweAAD(protectedSegment, aadSegment))
	if err != nil {
		return nil, nil, fmt.Errorf("jwe encrypt: %w", err)
	}

	encryptedKey, err := wrap(res.Key, key)
	if err != nil {
		return nil, nil, fmt.Errorf("jwe encrypt: wrap key: %w", err)
	}

	return res, encryptedKey, nil
}

// Decrypt decrypts a parsed JWE with privateKey and returns the plaintext.
func (j *JWE) Decrypt(privateKey jwk.PrivateKey) ([]byte, error) {
	if j.parseErr != nil {
		return nil, fmt.Errorf("jwe decrypt: %w", j.parseErr)
	}

	header := j.Header()

	alg, ok := header.Algorithm()
	if !ok {
		return nil, fmt.Errorf("jwe decrypt: %w: alg", ErrMissingHeader)
	}

	enc, ok := header.Encryption()
	if !ok {
		return nil, fmt.Errorf("jwe decrypt: %w: enc", ErrMissingHeader)
	}

	if err := j.checkExtensions(header); err != nil {
		return nil, fmt.Errorf("jwe decrypt: %w", err)
	}

	if kid, ok := header.KeyID(); ok && kid != "" && privateKey.KeyID() != "" && kid != privateKey.KeyID() {
		return nil, fmt.Errorf("jwe decrypt: %w: token kid %q, key kid %q", ErrKeyMismatch, kid, privateKey.KeyID())
	}

	unwrap, err := j.registry.AsymmetricDecrypter(alg)
	if err != nil {
		return nil, fmt.Errorf("jwe decrypt: %w", err)
	}

	contentDecrypt, err := j.registry.SymmetricDecrypter(enc)
	if err != nil {
		return nil, fmt.Errorf("jwe decrypt: %w", err)
	}

	cek, err := unwrap(j.parsed.encryptedKey, privateKey)
	if err != nil {
		return nil, fmt.Errorf("jwe decrypt: unwrap key: %w", err)
	}

	plaintext, err := contentDecrypt(j.parsed.ciphertext, j.parsed.aad(), j.parsed.iv, cek, j.parsed.tag)
	if err != nil {
		return nil, fmt.Errorf("jwe decrypt: %w", err)
	}

	return plaintext, nil
}

func (j *JWE) checkExtensions(header Headers) error {
	if header.has(HeaderCompression) {
		return fmt.Errorf("%w: zip", ErrUnsupportedExtension)
	}

	names, _, err := header.Critical()
	if err != nil {
		return err
	}

	for _, n := range names {
		if _, ok := j.extensions[n]; !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedExtension, n)
		}
	}

	return nil
}

// Compact returns the compact serialization of a parsed JWE.
func (j *JWE) Compact() (string, error) {
	if j.parseErr != nil {
		return "", fmt.Errorf("jwe compact: %w", j.parseErr)
	}

	if !j.parsed.protected.has(HeaderAlgorithm) || !j.parsed.protected.has(HeaderEncryption) {
		return "", fmt.Errorf("jwe compact: %w: protected header needs alg and enc", ErrInvalidForCompactForm)
	}

	if j.parsed.aadSegment != "" {
		return "", fmt.Errorf("jwe compact: %w: custom aad", ErrInvalidForCompactForm)
	}

	return strings.Join([]string{
		j.parsed.protectedSegment,
		encodeSegment(j.parsed.encryptedKey),
		encodeSegment(j.parsed.iv),
		encodeSegment(j.parsed.ciphertext),
		encodeSegment(j.parsed.tag),
	}, "."), nil
}

// FlattenedJSON returns the flattened JSON serialization of a parsed JWE with extraUnprotected
// merged into its unprotected header.
func (j *JWE) FlattenedJSON(extraUnprotected Headers) (*FlattenedJWE, error) {
	if j.parseErr != nil {
		return nil, fmt.Errorf("jwe flattened: %w", j.parseErr)
	}

	out := &FlattenedJWE{
		Protected:    j.parsed.protectedSegment,
		EncryptedKey: encodeSegment(j.parsed.encryptedKey),
		IV:           encodeSegment(j.parsed.iv),
		Ciphertext:   encodeSegment(j.parsed.ciphertext),
		Tag:          encodeSegment(j.parsed.tag),
		AAD:          j.parsed.aadSegment,
	}

	if unprotected := mergeHeaders(j.parsed.unprotected, extraUnprotected); len(unprotected) > 0 {
		out.Unprotected = unprotected
	}

	if len(j.parsed.recipient) > 0 {
		out.Header = j.parsed.recipient
	}

	return out, nil
}

type rawFlattenedJWE struct {
	Protected    *string         `json:"protected"`
	Unprotected  Headers         `json:"unprotected"`
	Header       Headers         `json:"header"`
	Recipients   json.RawMessage `json:"recipients"`
	EncryptedKey *string         `json:"encrypted_key"`
	IV           *string         `json:"iv"`
	Ciphertext   *string         `json:"ciphertext"`
	Tag          *string         `json:"tag"`
	AAD          *string         `json:"aad"`
}

func parseJWE(content []byte) (*parsedJWE, error) {
	trimmed := bytes.TrimSpace(content)

	if bytes.HasPrefix(trimmed, []byte("{")) {
		return parseFlattenedJWE(trimmed)
	}

	parts := strings.Split(string(trimmed), ".")
	if len(parts) != jweCompactParts {
		return nil, fmt.Errorf("%w: compact JWE must have %d parts", ErrMalformedToken, jweCompactParts)
	}

	return newParsedJWE(parts[0], nil, nil, parts[1], parts[2], parts[3], parts[4], "")
}

func parseFlattenedJWE(b []byte) (*parsedJWE, error) {
	var raw rawFlattenedJWE

	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	if raw.Recipients != nil {
		return nil, fmt.Errorf("%w: general JSON serialization with recipients is not supported", ErrMalformedToken)
	}

	if raw.EncryptedKey == nil || raw.IV == nil || raw.Ciphertext == nil || raw.Tag == nil {
		return nil, fmt.Errorf("%w: flattened JWE needs encrypted_key, iv, ciphertext and tag", ErrMalformedToken)
	}

	if raw.Protected == nil && raw.Unprotected == nil && raw.Header == nil {
		return nil, fmt.Errorf("%w: flattened JWE has no header", ErrMalformedToken)
	}

	protectedSegment, aadSegment := "", ""

	if raw.Protected != nil {
		protectedSegment = *raw.Protected
	}

	if raw.AAD != nil {
		aadSegment = *raw.AAD
	}

	return newParsedJWE(protectedSegment, raw.Unprotected, raw.Header,
		*raw.EncryptedKey, *raw.IV, *raw.Ciphertext, *raw.Tag, aadSegment)
}

func newParsedJWE(protectedSegment string, unprotected, recipient Headers,
	encryptedKeySegment, ivSegment, ciphertextSegment, tagSegment, aadSegment string) (*parsedJWE, error) {
	protected, err := decodeHeaders(protectedSegment)
	if err != nil {
		return nil, fmt.Errorf("%w: protected header: %v", ErrMalformedToken, err)
	}

	decoded := make([][]byte, 4)

	for i, s := range []string{encryptedKeySegment, ivSegment, ciphertextSegment, tagSegment} {
		decoded[i], err = decodeSegment(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}

	if aadSegment != "" {
		if _, err = decodeSegment(aadSegment); err != nil {
			return nil, fmt.Errorf("%w: aad: %v", ErrMalformedToken, err)
		}
	}

	return &parsedJWE{
		protectedSegment: protectedSegment,
		protected:        protected,
		unprotected:      unprotected,
		recipient:        recipient,
		encryptedKey:     decoded[0],
		iv:               decoded[1],
		ciphertext:       decoded[2],
		tag:              decoded[3],
		aadSegment:       aadSegment,
	}, nil
}
