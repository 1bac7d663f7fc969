/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package authentication

import (
	"time"

	"github.com/trustbloc/did-auth-jose-go/pkg/authentication"
)

// TokenArgs carries a signed token.
type TokenArgs struct {
	Token string `json:"token"`
}

// TokenResponse is the result of the signing commands.
type TokenResponse struct {
	Token string `json:"token"`
}

// FormResponseArgs is the input of FormResponse.
type FormResponseArgs struct {
	// Request is the authentication request being answered.
	Request authentication.Request `json:"request"`

	// DID of the responder; its key signs the response.
	DID string `json:"did"`

	// Claims are merged into the response.
	Claims map[string]interface{} `json:"claims,omitempty"`

	// Expiration of the response. Defaults to five minutes from now.
	Expiration *time.Time `json:"expiration,omitempty"`
}

// ExchangeArgs is the input of Exchange.
type ExchangeArgs struct {
	// Request is a compact JWE produced by a peer's authenticated request.
	Request string `json:"request"`
}

// ExchangeResponse is the output of Exchange.
type ExchangeResponse struct {
	// State is "challenged" when an access token was issued, "verified" otherwise.
	State authentication.State `json:"state"`

	// Response is the signed and encrypted access token or reply.
	Response string `json:"response"`
}

// ExchangeEvent is published to the notifier after every exchange.
type ExchangeEvent struct {
	State        authentication.State `json:"state"`
	RequesterKey string               `json:"requesterKey,omitempty"`
	LocalKey     string               `json:"localKey,omitempty"`
	Nonce        string               `json:"nonce,omitempty"`
}
