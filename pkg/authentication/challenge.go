/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package authentication

import (
	"crypto"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose"
	"github.com/trustbloc/did-auth-jose-go/pkg/kms/keystore"
)

const (
	responseTypeIDToken = "id_token"
	scopeOpenID         = "openid"

	headerIssuedAt   = "iat"
	headerExpiration = "exp"

	// DefaultResponseValidity is the lifetime of a response formed without an expiration.
	DefaultResponseValidity = 5 * time.Minute
	// ClockSkew is tolerated when checking the expiry of a response.
	ClockSkew = 5 * time.Minute
)

// SignAuthenticationRequest signs request with the key of its issuer and returns a compact JWS.
func (a *Authentication) SignAuthenticationRequest(request *Request) (string, error) {
	if request == nil || request.ResponseType != responseTypeIDToken || request.Scope != scopeOpenID {
		return "", ErrInvalidRequestShape
	}

	ref, err := a.keyReference(request.Issuer)
	if err != nil {
		return "", fmt.Errorf("sign authentication request: %w", err)
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("sign authentication request: marshal: %w", err)
	}

	return keystore.Sign(a.store, ref, payload, keystore.CompactJSONJWS, a.registry, nil)
}

// VerifyAuthenticationRequest verifies a signed authentication request against the signer's DID
// document and checks that the signer is the request issuer.
func (a *Authentication) VerifyAuthenticationRequest(request []byte) (*Request, error) {
	kid, content, err := a.verifySignature(jose.NewJWS(request, a.registry))
	if err != nil {
		return nil, fmt.Errorf("verify authentication request: %w", err)
	}

	req := &Request{}
	if err = json.Unmarshal(content, req); err != nil {
		return nil, fmt.Errorf("verify authentication request: %w: %v", jose.ErrMalformedToken, err)
	}

	if signer := did.GetDIDFromKeyID(kid); req.Issuer != signer {
		return nil, fmt.Errorf("%w: %s signed a request issued by %s", ErrIssuerMismatch, signer, req.Issuer)
	}

	return req, nil
}

// FormAuthenticationResponse answers request with a self-issued response signed by the key of
// responseDID. A zero expiration means DefaultResponseValidity from now.
func (a *Authentication) FormAuthenticationResponse(request *Request, responseDID string,
	claims map[string]interface{}, expiration time.Time) (string, error) {
	if request == nil {
		return "", ErrInvalidRequestShape
	}

	ref, err := a.responderReference(responseDID)
	if err != nil {
		return "", fmt.Errorf("form authentication response: %w", err)
	}

	pub, err := a.localPublicKey(ref)
	if err != nil {
		return "", fmt.Errorf("form authentication response: %w", err)
	}

	thumbprint, err := pub.Thumbprint(crypto.SHA512)
	if err != nil {
		return "", fmt.Errorf("form authentication response: %w", err)
	}

	now := a.now()
	if expiration.IsZero() {
		expiration = now.Add(DefaultResponseValidity)
	}

	response := &Response{
		Issuer:     SelfIssuedIssuer,
		Subject:    base64.RawURLEncoding.EncodeToString(thumbprint),
		Audience:   request.ClientID,
		Nonce:      request.Nonce,
		Expiration: expiration.Unix(),
		IssuedAt:   now.Unix(),
		SubjectJWK: pub.JWK(),
		DID:        responseDID,
		State:      request.State,
		Claims:     claims,
	}

	payload, err := json.Marshal(response)
	if err != nil {
		return "", fmt.Errorf("form authentication response: marshal: %w", err)
	}

	return keystore.Sign(a.store, ref, payload, keystore.CompactJSONJWS, a.registry, jose.Headers{
		headerIssuedAt:   strconv.FormatInt(response.IssuedAt, 10),
		headerExpiration: strconv.FormatInt(response.Expiration, 10),
	})
}

// VerifyAuthenticationResponse checks the expiry and signature of a response and that its did claim
// names the signer.
func (a *Authentication) VerifyAuthenticationResponse(response []byte) (*Response, error) {
	jws := jose.NewJWS(response, a.registry)

	exp, ok, err := expirationHeader(jws.Header())
	if err != nil {
		return nil, fmt.Errorf("verify authentication response: %w", err)
	}

	if ok && time.Unix(exp, 0).Add(ClockSkew).Before(a.now()) {
		return nil, ErrResponseExpired
	}

	kid, content, err := a.verifySignature(jws)
	if err != nil {
		return nil, fmt.Errorf("verify authentication response: %w", err)
	}

	resp := &Response{}
	if err = json.Unmarshal(content, resp); err != nil {
		return nil, fmt.Errorf("verify authentication response: %w: %v", jose.ErrMalformedToken, err)
	}

	if signer := did.GetDIDFromKeyID(kid); resp.DID != signer {
		return nil, fmt.Errorf("%w: %s signed a response for %s", ErrIssuerMismatch, signer, resp.DID)
	}

	return resp, nil
}

// verifySignature verifies jws with the key its kid names in the signer's DID document.
func (a *Authentication) verifySignature(jws *jose.JWS) (string, []byte, error) {
	kid, pub, err := a.signerPublicKey(jws)
	if err != nil {
		return "", nil, err
	}

	content, err := jws.Verify(pub)
	if err != nil {
		return "", nil, err
	}

	return kid, content, nil
}

func expirationHeader(h jose.Headers) (int64, bool, error) {
	v, ok := h[headerExpiration]
	if !ok || v == nil {
		return 0, false, nil
	}

	switch exp := v.(type) {
	case string:
		n, err := strconv.ParseInt(exp, 10, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%w: exp %q", jose.ErrMalformedHeader, exp)
		}

		return n, true, nil
	case float64:
		return int64(exp), true, nil
	case json.Number:
		n, err := exp.Int64()
		if err != nil {
			return 0, false, fmt.Errorf("%w: exp %q", jose.ErrMalformedHeader, exp)
		}

		return n, true, nil
	default:
		return 0, false, fmt.Errorf("%w: exp has type %T", jose.ErrMalformedHeader, v)
	}
}
