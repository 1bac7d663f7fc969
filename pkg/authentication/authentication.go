/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package authentication implements DID authentication between two parties holding DID-bound keys:
// the self-issued identity challenge/response and the signed-then-encrypted request exchange guarded
// by short-lived access tokens.
package authentication

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trustbloc/did-auth-jose-go/pkg/common/log"
	"github.com/trustbloc/did-auth-jose-go/pkg/crypto/suite"
	"github.com/trustbloc/did-auth-jose-go/pkg/crypto/suite/aessuite"
	"github.com/trustbloc/did-auth-jose-go/pkg/crypto/suite/rsasuite"
	"github.com/trustbloc/did-auth-jose-go/pkg/crypto/suite/secp256k1suite"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
	"github.com/trustbloc/did-auth-jose-go/pkg/kms/keystore"
	"github.com/trustbloc/did-auth-jose-go/pkg/vdr"
)

var logger = log.New("didauth/authentication")

// DefaultTokenValidity is how long issued access tokens stay valid unless configured otherwise.
const DefaultTokenValidity = 5 * time.Minute

var (
	// ErrNoKeys is returned by New when neither keys nor key references are configured.
	ErrNoKeys = errors.New("a key by reference or a key by value is required")
	// ErrMixedKeys is returned by New when keys and key references are both configured.
	ErrMixedKeys = errors.New("keys by reference cannot be mixed with keys by value")
	// ErrKeyNotFound is returned when no local or resolved key matches the requested id.
	ErrKeyNotFound = errors.New("key not found")
	// ErrIssuerMismatch is returned when the signing DID differs from the DID claimed in the payload.
	ErrIssuerMismatch = errors.New("signing DID does not match issuer")
	// ErrResponseExpired is returned for authentication responses past their expiry.
	ErrResponseExpired = errors.New("response expired")
	// ErrInvalidAccessToken is returned when a presented access token does not validate.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrInvalidRequestShape is returned for authentication requests that are not OpenID id_token requests.
	ErrInvalidRequestShape = errors.New("authentication request must be an openid id_token request")
)

// Option configures Authentication.
type Option func(a *Authentication)

// WithKeys configures private keys by value. Order matters: the last key signs outgoing messages.
func WithKeys(keys ...jwk.PrivateKey) Option {
	return func(a *Authentication) {
		a.keys = append(a.keys, keys...)
	}
}

// WithKeyReferences configures references to private keys held by the key store. The last
// reference signs outgoing messages.
func WithKeyReferences(refs ...string) Option {
	return func(a *Authentication) {
		a.keyRefs = append(a.keyRefs, refs...)
	}
}

// WithKeyStore sets the key store. Defaults to an in-memory store.
func WithKeyStore(store keystore.KeyStore) Option {
	return func(a *Authentication) {
		a.store = store
	}
}

// WithSuites replaces the default algorithm suites (AES, RSA, secp256k1).
func WithSuites(suites ...suite.Suite) Option {
	return func(a *Authentication) {
		a.suites = suites
	}
}

// WithTokenValidity sets how long issued access tokens stay valid.
func WithTokenValidity(d time.Duration) Option {
	return func(a *Authentication) {
		a.tokenValidity = d
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Authentication) {
		a.now = now
	}
}

// WithNonceGenerator sets the generator of requester nonces.
func WithNonceGenerator(gen func() string) Option {
	return func(a *Authentication) {
		a.newNonce = gen
	}
}

// Authentication signs, encrypts, decrypts and verifies DID authenticated messages.
type Authentication struct {
	resolver      vdr.Resolver
	keys          []jwk.PrivateKey
	keyRefs       []string
	store         keystore.KeyStore
	suites        []suite.Suite
	registry      *suite.Registry
	tokenValidity time.Duration
	now           func() time.Time
	newNonce      func() string
}

// New creates Authentication resolving peers through resolver.
func New(resolver vdr.Resolver, opts ...Option) (*Authentication, error) {
	a := &Authentication{
		resolver:      resolver,
		tokenValidity: DefaultTokenValidity,
		now:           time.Now,
		newNonce:      func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(a)
	}

	if resolver == nil {
		return nil, errors.New("authentication: resolver is required")
	}

	if len(a.keys) == 0 && len(a.keyRefs) == 0 {
		return nil, fmt.Errorf("authentication: %w", ErrNoKeys)
	}

	if len(a.keys) > 0 && len(a.keyRefs) > 0 {
		return nil, fmt.Errorf("authentication: %w", ErrMixedKeys)
	}

	if a.store == nil {
		a.store = keystore.NewMemStore()
	}

	if len(a.suites) == 0 {
		a.suites = []suite.Suite{aessuite.New(), rsasuite.New(), secp256k1suite.New()}
	}

	if a.tokenValidity <= 0 {
		a.tokenValidity = DefaultTokenValidity
	}

	a.registry = suite.NewRegistry(a.suites)

	return a, nil
}

// Registry returns the suite registry built from the configured suites.
func (a *Authentication) Registry() *suite.Registry {
	return a.registry
}

// keyReference returns the reference of the local key for issuer. A key held by value is saved to the
// store under its key id first.
func (a *Authentication) keyReference(issuer string) (string, error) {
	if len(a.keyRefs) > 0 {
		return a.keyRefs[len(a.keyRefs)-1], nil
	}

	for _, key := range a.keys {
		if strings.HasPrefix(key.KeyID(), issuer) {
			return a.saveKey(key)
		}
	}

	return "", fmt.Errorf("%w: no local key for %s", ErrKeyNotFound, issuer)
}

// responderReference returns the reference of the local key for responseDID. A key held by
// reference must belong to responseDID.
func (a *Authentication) responderReference(responseDID string) (string, error) {
	ref, err := a.keyReference(responseDID)
	if err != nil || len(a.keyRefs) == 0 {
		return ref, err
	}

	stored, err := a.store.List()
	if err != nil {
		return "", fmt.Errorf("list key store: %w", err)
	}

	if kid, ok := stored[ref]; !ok || !strings.HasPrefix(kid, responseDID) {
		return "", fmt.Errorf("%w: reference %s holds no key of %s", ErrKeyNotFound, ref, responseDID)
	}

	return ref, nil
}

// signingReference returns the reference of the most recently configured key.
func (a *Authentication) signingReference() (string, error) {
	if len(a.keyRefs) > 0 {
		return a.keyRefs[len(a.keyRefs)-1], nil
	}

	return a.saveKey(a.keys[len(a.keys)-1])
}

// decryptionReference returns the reference of the local key with id kid.
func (a *Authentication) decryptionReference(kid string) (string, error) {
	if len(a.keys) > 0 {
		for _, key := range a.keys {
			if key.KeyID() == kid {
				return a.saveKey(key)
			}
		}

		return "", fmt.Errorf("%w: encryption key %q", ErrKeyNotFound, kid)
	}

	stored, err := a.store.List()
	if err != nil {
		return "", fmt.Errorf("list key store: %w", err)
	}

	for _, ref := range a.keyRefs {
		if storedKID, ok := stored[ref]; ok && storedKID == kid {
			return ref, nil
		}
	}

	return "", fmt.Errorf("%w: no reference for encryption key %q", keystore.ErrKeyReferenceNotFound, kid)
}

func (a *Authentication) saveKey(key jwk.PrivateKey) (string, error) {
	ref := key.KeyID()
	if ref == "" {
		return "", fmt.Errorf("%w: local key has no key id", ErrKeyNotFound)
	}

	if err := a.store.Save(ref, key); err != nil {
		return "", fmt.Errorf("save key %s: %w", ref, err)
	}

	return ref, nil
}

func (a *Authentication) localPublicKey(ref string) (jwk.PublicKey, error) {
	key, err := a.store.Get(ref, true)
	if err != nil {
		return nil, err
	}

	pub, ok := key.(jwk.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", keystore.ErrUnsupportedKeyFamily, key.KeyType())
	}

	return pub, nil
}

// resolvePublicKey resolves the DID owning kid and builds the public key the document lists under kid.
func (a *Authentication) resolvePublicKey(kid string) (jwk.PublicKey, error) {
	doc, err := a.resolve(did.GetDIDFromKeyID(kid))
	if err != nil {
		return nil, err
	}

	pk, ok := doc.LookupPublicKey(kid)
	if !ok {
		return nil, fmt.Errorf("%w: public key %s", ErrKeyNotFound, kid)
	}

	return a.registry.ConstructKey(pk)
}

func (a *Authentication) resolve(didID string) (*did.Doc, error) {
	res, err := a.resolver.Resolve(didID)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", didID, err)
	}

	if res == nil || res.DIDDocument == nil {
		return nil, fmt.Errorf("resolve %s: %w", didID, vdr.ErrNotFound)
	}

	return res.DIDDocument, nil
}

// signerPublicKey resolves the key named by the kid header of jws.
func (a *Authentication) signerPublicKey(jws *jose.JWS) (string, jwk.PublicKey, error) {
	if !jws.Parsed() {
		return "", nil, jose.ErrMalformedToken
	}

	kid, ok := jws.Header().KeyID()
	if !ok || kid == "" {
		return "", nil, fmt.Errorf("%w: %s", jose.ErrMissingHeader, jose.HeaderKeyID)
	}

	pub, err := a.resolvePublicKey(kid)
	if err != nil {
		return "", nil, err
	}

	return kid, pub, nil
}
