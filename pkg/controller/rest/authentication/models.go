/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package authentication

import (
	"github.com/trustbloc/did-auth-jose-go/pkg/authentication"
	cmdauth "github.com/trustbloc/did-auth-jose-go/pkg/controller/command/authentication"
)

// signRequestReq model
//
// swagger:parameters signRequest
type signRequestReq struct { // nolint: unused,deadcode
	// in: body
	authentication.Request
}

// tokenReq model
//
// This is used for verifying a signed request or response.
//
// swagger:parameters verifyRequest verifyResponse
type tokenReq struct { // nolint: unused,deadcode
	// in: body
	cmdauth.TokenArgs
}

// tokenResponse model
//
// swagger:response tokenResponse
type tokenResponse struct { // nolint: unused,deadcode
	// in: body
	cmdauth.TokenResponse
}

// formResponseReq model
//
// swagger:parameters formResponse
type formResponseReq struct { // nolint: unused,deadcode
	// in: body
	cmdauth.FormResponseArgs
}

// verifyRequestResponse model
//
// swagger:response verifyRequestResponse
type verifyRequestResponse struct { // nolint: unused,deadcode
	// in: body
	authentication.Request
}

// verifyResponseResponse model
//
// swagger:response verifyResponseResponse
type verifyResponseResponse struct { // nolint: unused,deadcode
	// in: body
	authentication.Response
}
