/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package authentication

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v3/jwt"

	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
	"github.com/trustbloc/did-auth-jose-go/pkg/kms/keystore"
)

// GetVerifiedRequest decrypts request with the local key its kid names and resolves the requester's
// signing key. When accessTokenCheck is set and the request carries no access token, a new token is
// issued to the requester and returned signed and encrypted instead of the request. Otherwise the
// access token (if checked) and the request signature are verified.
func (a *Authentication) GetVerifiedRequest(request []byte, accessTokenCheck bool) (*VerificationResult, error) {
	jwe := jose.NewJWE(request, a.registry)
	if !jwe.Parsed() {
		return nil, fmt.Errorf("get verified request: %w", jose.ErrMalformedToken)
	}

	kid, _ := jwe.Header().KeyID()

	ref, err := a.decryptionReference(kid)
	if err != nil {
		return nil, fmt.Errorf("get verified request: %w", err)
	}

	plaintext, err := keystore.Decrypt(a.store, ref, request, keystore.CompactJSONJWE, a.registry)
	if err != nil {
		return nil, fmt.Errorf("get verified request: %w", err)
	}

	jws := jose.NewJWS(plaintext, a.registry)

	requestKID, requesterKey, err := a.signerPublicKey(jws)
	if err != nil {
		return nil, fmt.Errorf("get verified request: %w", err)
	}

	requester := did.GetDIDFromKeyID(requestKID)
	header := jws.Header()
	nonce, _ := header[jose.HeaderRequesterNonce].(string)

	localKey, err := a.localPublicKey(ref)
	if err != nil {
		return nil, fmt.Errorf("get verified request: %w", err)
	}

	if accessTokenCheck {
		token, _ := header[jose.HeaderAccessToken].(string)
		if token == "" {
			logger.Debugf("issuing access token to %s", requester)

			response, issueErr := a.issueAccessToken(requester, nonce, ref, requesterKey)
			if issueErr != nil {
				return nil, fmt.Errorf("get verified request: %w", issueErr)
			}

			return &VerificationResult{State: StateChallenged, AccessTokenResponse: response}, nil
		}

		if !a.verifyJWT(localKey, token, requester) {
			return nil, ErrInvalidAccessToken
		}
	}

	content, err := jws.Verify(requesterKey)
	if err != nil {
		return nil, fmt.Errorf("get verified request: %w", err)
	}

	return &VerificationResult{
		State: StateVerified,
		Request: &VerifiedRequest{
			LocalKeyID:         localKey.KeyID(),
			RequesterPublicKey: requesterKey,
			Nonce:              nonce,
			Request:            content,
		},
	}, nil
}

// GetAuthenticatedResponse signs response and encrypts it to the requester of request, echoing the
// request nonce.
func (a *Authentication) GetAuthenticatedResponse(request *VerifiedRequest, response []byte) ([]byte, error) {
	if request == nil || request.RequesterPublicKey == nil {
		return nil, fmt.Errorf("get authenticated response: %w: no requester key", ErrKeyNotFound)
	}

	return a.signThenEncrypt(request.Nonce, request.RequesterPublicKey, response, "")
}

// GetAuthenticatedRequest signs content with a fresh nonce and accessToken (if any) in the header and
// encrypts it to the first public key of recipientDID.
func (a *Authentication) GetAuthenticatedRequest(content []byte, recipientDID, accessToken string) ([]byte, error) {
	nonce := a.newNonce()

	doc, err := a.resolve(recipientDID)
	if err != nil {
		return nil, fmt.Errorf("get authenticated request: %w", err)
	}

	if len(doc.PublicKey) == 0 {
		return nil, fmt.Errorf("get authenticated request: %w: %s has no public keys", ErrKeyNotFound, recipientDID)
	}

	recipientKey, err := a.registry.ConstructKey(&doc.PublicKey[0])
	if err != nil {
		return nil, fmt.Errorf("get authenticated request: %w", err)
	}

	return a.signThenEncrypt(nonce, recipientKey, content, accessToken)
}

// CreateAccessToken signs a JWT for subjectDID with the key stored under keyRef, valid for validity.
func (a *Authentication) CreateAccessToken(subjectDID, keyRef string, validity time.Duration) (string, error) {
	now := a.now()

	claims := jwt.Claims{
		Subject:  subjectDID,
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(now.Add(validity)),
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("create access token: %w", err)
	}

	return keystore.Sign(a.store, keyRef, payload, keystore.CompactJSONJWS, a.registry, nil)
}

func (a *Authentication) issueAccessToken(subjectDID, nonce, keyRef string, requesterKey jwk.PublicKey) ([]byte, error) {
	token, err := a.CreateAccessToken(subjectDID, keyRef, a.tokenValidity)
	if err != nil {
		return nil, err
	}

	return a.signThenEncrypt(nonce, requesterKey, []byte(token), "")
}

// verifyJWT reports whether token is signed by publicKey, issued to expectedDID and unexpired.
// Every failure reads as an invalid token.
func (a *Authentication) verifyJWT(publicKey jwk.PublicKey, token, expectedDID string) bool {
	if publicKey == nil || token == "" || expectedDID == "" {
		return false
	}

	payload, err := jose.NewJWS([]byte(token), a.registry).Verify(publicKey)
	if err != nil {
		logger.Debugf("access token signature: %v", err)

		return false
	}

	claims := jwt.Claims{}
	if err = json.Unmarshal(payload, &claims); err != nil || claims.Expiry == nil {
		return false
	}

	err = claims.ValidateWithLeeway(jwt.Expected{Subject: expectedDID, Time: a.now()}, 0)
	if err != nil {
		logger.Debugf("access token for %s rejected: %v", expectedDID, err)

		return false
	}

	return true
}

// signThenEncrypt signs content with the most recent local key and encrypts the compact JWS to
// recipient.
func (a *Authentication) signThenEncrypt(nonce string, recipient jwk.PublicKey, content []byte,
	accessToken string) ([]byte, error) {
	headers := jose.Headers{jose.HeaderRequesterNonce: nonce}
	if accessToken != "" {
		headers[jose.HeaderAccessToken] = accessToken
	}

	ref, err := a.signingReference()
	if err != nil {
		return nil, err
	}

	signed, err := keystore.Sign(a.store, ref, content, keystore.CompactJSONJWS, a.registry, headers)
	if err != nil {
		return nil, err
	}

	encrypted, err := jose.NewJWE([]byte(signed), a.registry).Encrypt(recipient, nil)
	if err != nil {
		return nil, err
	}

	return []byte(encrypted), nil
}
