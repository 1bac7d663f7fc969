/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package authentication

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/trustbloc/did-auth-jose-go/pkg/authentication"
	"github.com/trustbloc/did-auth-jose-go/pkg/common/log"
	"github.com/trustbloc/did-auth-jose-go/pkg/controller/command"
	cmdauth "github.com/trustbloc/did-auth-jose-go/pkg/controller/command/authentication"
	"github.com/trustbloc/did-auth-jose-go/pkg/controller/internal/cmdutil"
	"github.com/trustbloc/did-auth-jose-go/pkg/controller/rest"
)

var logger = log.New("didauth/rest/authentication")

// constants for authentication operations.
const (
	AuthenticationOperationID = "/authentication"
	SignRequestPath           = AuthenticationOperationID + "/request/sign"
	VerifyRequestPath         = AuthenticationOperationID + "/request/verify"
	FormResponsePath          = AuthenticationOperationID + "/response/form"
	VerifyResponsePath        = AuthenticationOperationID + "/response/verify"
	ExchangePath              = AuthenticationOperationID + "/exchange"

	// JOSEContentType is the media type of compact serialized JOSE objects.
	JOSEContentType = "application/jose"

	// maximum accepted size of an exchange body.
	maxExchangeBody = 1 << 20
)

type authenticationCommand interface {
	SignRequest(rw io.Writer, req io.Reader) command.Error
	VerifyRequest(rw io.Writer, req io.Reader) command.Error
	FormResponse(rw io.Writer, req io.Reader) command.Error
	VerifyResponse(rw io.Writer, req io.Reader) command.Error
	ProcessExchange(request []byte) (*cmdauth.ExchangeResponse, command.Error)
}

// Operation contains the authentication operations provided by controller REST API.
type Operation struct {
	handlers []rest.Handler
	command  authenticationCommand
}

// New returns new authentication operations rest client instance.
func New(auth *authentication.Authentication, opts ...cmdauth.Option) (*Operation, error) {
	cmd, err := cmdauth.New(auth, opts...)
	if err != nil {
		return nil, fmt.Errorf("new authentication command : %w", err)
	}

	o := &Operation{command: cmd}
	o.registerHandler()

	return o, nil
}

// GetRESTHandlers get all controller API handler available for this service.
func (o *Operation) GetRESTHandlers() []rest.Handler {
	return o.handlers
}

// registerHandler register handlers to be exposed from this service as REST API endpoints.
func (o *Operation) registerHandler() {
	o.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(SignRequestPath, http.MethodPost, o.SignRequest),
		cmdutil.NewHTTPHandler(VerifyRequestPath, http.MethodPost, o.VerifyRequest),
		cmdutil.NewHTTPHandler(FormResponsePath, http.MethodPost, o.FormResponse),
		cmdutil.NewHTTPHandler(VerifyResponsePath, http.MethodPost, o.VerifyResponse),
		cmdutil.NewHTTPHandler(ExchangePath, http.MethodPost, o.Exchange),
	}
}

// SignRequest swagger:route POST /authentication/request/sign authentication signRequest
//
// Signs an authentication request with the key of its issuer.
//
// Responses:
//    default: genericError
//        200: tokenResponse
func (o *Operation) SignRequest(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.SignRequest, rw, req.Body)
}

// VerifyRequest swagger:route POST /authentication/request/verify authentication verifyRequest
//
// Verifies a signed authentication request.
//
// Responses:
//    default: genericError
//        200: verifyRequestResponse
func (o *Operation) VerifyRequest(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.VerifyRequest, rw, req.Body)
}

// FormResponse swagger:route POST /authentication/response/form authentication formResponse
//
// Forms a signed self-issued authentication response.
//
// Responses:
//    default: genericError
//        200: tokenResponse
func (o *Operation) FormResponse(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.FormResponse, rw, req.Body)
}

// VerifyResponse swagger:route POST /authentication/response/verify authentication verifyResponse
//
// Verifies a signed authentication response.
//
// Responses:
//    default: genericError
//        200: verifyResponseResponse
func (o *Operation) VerifyResponse(rw http.ResponseWriter, req *http.Request) {
	rest.Execute(o.command.VerifyResponse, rw, req.Body)
}

// Exchange swagger:route POST /authentication/exchange authentication exchange
//
// Accepts a compact JWE authenticated request. Replies 201 with an encrypted access token when the
// request carries none, otherwise 200 with the encrypted reply.
//
// Responses:
//    default: genericError
func (o *Operation) Exchange(rw http.ResponseWriter, req *http.Request) {
	body, err := io.ReadAll(io.LimitReader(req.Body, maxExchangeBody))
	if err != nil {
		rest.SendHTTPStatusError(rw, http.StatusBadRequest, cmdauth.InvalidRequestErrorCode,
			fmt.Errorf("read request body: %w", err))

		return
	}

	if len(body) == 0 {
		rest.SendHTTPStatusError(rw, http.StatusBadRequest, cmdauth.InvalidRequestErrorCode,
			errors.New("request is mandatory"))

		return
	}

	response, cmdErr := o.command.ProcessExchange(body)
	if cmdErr != nil {
		rest.SendError(rw, cmdErr)

		return
	}

	status := http.StatusOK
	if response.State == authentication.StateChallenged {
		status = http.StatusCreated
	}

	rw.Header().Set("Content-Type", JOSEContentType)
	rw.WriteHeader(status)

	if _, err = rw.Write([]byte(response.Response)); err != nil {
		logger.Errorf("write exchange response: %v", err)
	}
}
