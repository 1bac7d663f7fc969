/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package authentication

import (
	"bytes"
	"encoding/json"

	"github.com/mitchellh/mapstructure"

	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
)

// SelfIssuedIssuer is the iss of every authentication response.
const SelfIssuedIssuer = "https://self-issued.me"

// Request is an OpenID style authentication request signed by the requester.
type Request struct {
	Issuer       string                 `json:"iss"`
	ResponseType string                 `json:"response_type"`
	ClientID     string                 `json:"client_id"`
	Scope        string                 `json:"scope"`
	State        string                 `json:"state"`
	Nonce        string                 `json:"nonce"`
	Claims       map[string]interface{} `json:"claims,omitempty"`
}

// Response is a self-issued authentication response. Claims holds every member that is not one of
// the fixed fields; on marshal, claims override fixed fields of the same name.
type Response struct {
	Issuer     string                 `json:"iss" mapstructure:"iss"`
	Subject    string                 `json:"sub" mapstructure:"sub"`
	Audience   string                 `json:"aud" mapstructure:"aud"`
	Nonce      string                 `json:"nonce" mapstructure:"nonce"`
	Expiration int64                  `json:"exp" mapstructure:"exp"`
	IssuedAt   int64                  `json:"iat" mapstructure:"iat"`
	SubjectJWK map[string]interface{} `json:"sub_jwk" mapstructure:"sub_jwk"`
	DID        string                 `json:"did" mapstructure:"did"`
	State      string                 `json:"state" mapstructure:"state"`
	Claims     map[string]interface{} `json:"-" mapstructure:",remain"`
}

type responseFields Response

var responseFieldNames = map[string]struct{}{ //nolint:gochecknoglobals
	"iss": {}, "sub": {}, "aud": {}, "nonce": {}, "exp": {}, "iat": {}, "sub_jwk": {}, "did": {}, "state": {},
}

// MarshalJSON flattens Claims into the response object.
func (r *Response) MarshalJSON() ([]byte, error) {
	fixed, err := json.Marshal((*responseFields)(r))
	if err != nil {
		return nil, err
	}

	m := map[string]interface{}{}

	d := json.NewDecoder(bytes.NewReader(fixed))
	d.UseNumber()

	if err = d.Decode(&m); err != nil {
		return nil, err
	}

	for k, v := range r.Claims {
		m[k] = v
	}

	return json.Marshal(m)
}

// UnmarshalJSON reads the fixed fields and collects the rest into Claims. A fixed member whose JSON
// type does not fit its field, such as an array aud, stays a claim and leaves the field zero.
func (r *Response) UnmarshalJSON(data []byte) error {
	m := map[string]interface{}{}

	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}

	decoded := responseFields{}
	claims := map[string]interface{}{}

	for name, value := range m {
		if _, fixed := responseFieldNames[name]; fixed {
			if err := mapstructure.Decode(map[string]interface{}{name: value}, &decoded); err == nil {
				continue
			}
		}

		claims[name] = value
	}

	decoded.Claims = nil
	if len(claims) > 0 {
		decoded.Claims = claims
	}

	*r = Response(decoded)

	return nil
}

// VerifiedRequest is a decrypted request whose signature and access token have been checked.
type VerifiedRequest struct {
	// LocalKeyID is the id of the local key the request was encrypted to.
	LocalKeyID string
	// RequesterPublicKey is the requester's signing key, used to encrypt the response.
	RequesterPublicKey jwk.PublicKey
	// Nonce is the requester nonce, echoed in the response.
	Nonce string
	// Request is the plaintext request.
	Request []byte
}

// State is the outcome of GetVerifiedRequest.
type State string

const (
	// StateChallenged means the requester presented no access token and one was issued.
	StateChallenged State = "challenged"
	// StateVerified means the request carried a valid access token and signature.
	StateVerified State = "verified"
)

// VerificationResult holds either an access token response or a verified request.
type VerificationResult struct {
	State State
	// AccessTokenResponse is the signed and encrypted access token, set when challenged.
	AccessTokenResponse []byte
	// Request is set when verified.
	Request *VerifiedRequest
}
