/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package authentication

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/trustbloc/did-auth-jose-go/pkg/authentication"
	"github.com/trustbloc/did-auth-jose-go/pkg/common/log"
	"github.com/trustbloc/did-auth-jose-go/pkg/controller/command"
	"github.com/trustbloc/did-auth-jose-go/pkg/controller/internal/cmdutil"
	"github.com/trustbloc/did-auth-jose-go/pkg/crypto/suite"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose"
	"github.com/trustbloc/did-auth-jose-go/pkg/internal/logutil"
	"github.com/trustbloc/did-auth-jose-go/pkg/kms/keystore"
	"github.com/trustbloc/did-auth-jose-go/pkg/vdr"
)

var logger = log.New("didauth/command/authentication")

// Error codes.
const (
	// InvalidRequestErrorCode is typically a code for invalid requests.
	InvalidRequestErrorCode = command.Code(iota + command.Authentication)

	// SignRequestErrorCode for sign authentication request errors.
	SignRequestErrorCode

	// VerifyRequestErrorCode for verify authentication request errors.
	VerifyRequestErrorCode

	// FormResponseErrorCode for form authentication response errors.
	FormResponseErrorCode

	// VerifyResponseErrorCode for verify authentication response errors.
	VerifyResponseErrorCode

	// ExchangeErrorCode for authenticated exchange errors.
	ExchangeErrorCode

	// HandleRequestErrorCode for failures of the request handler.
	HandleRequestErrorCode
)

// constants for the authentication controller's methods.
const (
	// command name.
	CommandName = "authentication"

	// command methods.
	SignRequestCommandMethod    = "SignRequest"
	VerifyRequestCommandMethod  = "VerifyRequest"
	FormResponseCommandMethod   = "FormResponse"
	VerifyResponseCommandMethod = "VerifyResponse"
	ExchangeCommandMethod       = "Exchange"

	// ExchangeTopic is the notification topic of exchange events.
	ExchangeTopic = "didauth_exchange"

	// error messages.
	errEmptyToken   = "token is mandatory"
	errEmptyDID     = "did is mandatory"
	errEmptyRequest = "request is mandatory"

	// log constants.
	stateString = "state"
)

// clientErrors are caused by the caller's input and map to validation errors.
var clientErrors = []error{ //nolint:gochecknoglobals
	jose.ErrMalformedToken,
	jose.ErrMissingHeader,
	jose.ErrMalformedHeader,
	jose.ErrUnsupportedExtension,
	jose.ErrKeyMismatch,
	jose.ErrSignatureInvalid,
	suite.ErrUnsupportedAlgorithm,
	suite.ErrIntegrity,
	keystore.ErrKeyReferenceNotFound,
	vdr.ErrNotFound,
	authentication.ErrKeyNotFound,
	authentication.ErrIssuerMismatch,
	authentication.ErrResponseExpired,
	authentication.ErrInvalidAccessToken,
	authentication.ErrInvalidRequestShape,
}

// RequestHandler produces the reply to a verified request.
type RequestHandler func(request *authentication.VerifiedRequest) ([]byte, error)

// EchoHandler replies with the request content.
func EchoHandler(request *authentication.VerifiedRequest) ([]byte, error) {
	return request.Request, nil
}

// Option configures the command.
type Option func(c *Command)

// WithRequestHandler sets the handler of verified requests. Defaults to EchoHandler.
func WithRequestHandler(handler RequestHandler) Option {
	return func(c *Command) {
		c.handler = handler
	}
}

// WithNotifier publishes an ExchangeEvent for every exchange.
func WithNotifier(notifier command.Notifier) Option {
	return func(c *Command) {
		c.notifier = notifier
	}
}

// Command contains command operations provided by the authentication controller.
type Command struct {
	auth     *authentication.Authentication
	handler  RequestHandler
	notifier command.Notifier
}

// New returns new authentication controller command instance.
func New(auth *authentication.Authentication, opts ...Option) (*Command, error) {
	if auth == nil {
		return nil, errors.New("authentication is required")
	}

	c := &Command{auth: auth, handler: EchoHandler}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GetHandlers returns list of all commands supported by this controller command.
func (c *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, SignRequestCommandMethod, c.SignRequest),
		cmdutil.NewCommandHandler(CommandName, VerifyRequestCommandMethod, c.VerifyRequest),
		cmdutil.NewCommandHandler(CommandName, FormResponseCommandMethod, c.FormResponse),
		cmdutil.NewCommandHandler(CommandName, VerifyResponseCommandMethod, c.VerifyResponse),
		cmdutil.NewCommandHandler(CommandName, ExchangeCommandMethod, c.Exchange),
	}
}

// SignRequest signs an authentication request.
func (c *Command) SignRequest(rw io.Writer, req io.Reader) command.Error {
	var request authentication.Request

	if err := json.NewDecoder(req).Decode(&request); err != nil {
		logutil.LogInfo(logger, CommandName, SignRequestCommandMethod, err.Error())

		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	token, err := c.auth.SignAuthenticationRequest(&request)
	if err != nil {
		logutil.LogError(logger, CommandName, SignRequestCommandMethod, err.Error())

		return newError(SignRequestErrorCode, err)
	}

	command.WriteNillableResponse(rw, &TokenResponse{Token: token}, logger)

	logutil.LogDebug(logger, CommandName, SignRequestCommandMethod, "success")

	return nil
}

// VerifyRequest verifies a signed authentication request and returns it.
func (c *Command) VerifyRequest(rw io.Writer, req io.Reader) command.Error {
	token, cmdErr := decodeToken(req, VerifyRequestCommandMethod)
	if cmdErr != nil {
		return cmdErr
	}

	request, err := c.auth.VerifyAuthenticationRequest([]byte(token))
	if err != nil {
		logutil.LogError(logger, CommandName, VerifyRequestCommandMethod, err.Error())

		return newError(VerifyRequestErrorCode, err)
	}

	command.WriteNillableResponse(rw, request, logger)

	logutil.LogDebug(logger, CommandName, VerifyRequestCommandMethod, "success")

	return nil
}

// FormResponse forms a signed authentication response.
func (c *Command) FormResponse(rw io.Writer, req io.Reader) command.Error {
	var args FormResponseArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, FormResponseCommandMethod, err.Error())

		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if args.DID == "" {
		logutil.LogDebug(logger, CommandName, FormResponseCommandMethod, errEmptyDID)

		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyDID))
	}

	var expiration time.Time
	if args.Expiration != nil {
		expiration = *args.Expiration
	}

	token, err := c.auth.FormAuthenticationResponse(&args.Request, args.DID, args.Claims, expiration)
	if err != nil {
		logutil.LogError(logger, CommandName, FormResponseCommandMethod, err.Error())

		return newError(FormResponseErrorCode, err)
	}

	command.WriteNillableResponse(rw, &TokenResponse{Token: token}, logger)

	logutil.LogDebug(logger, CommandName, FormResponseCommandMethod, "success")

	return nil
}

// VerifyResponse verifies a signed authentication response and returns it.
func (c *Command) VerifyResponse(rw io.Writer, req io.Reader) command.Error {
	token, cmdErr := decodeToken(req, VerifyResponseCommandMethod)
	if cmdErr != nil {
		return cmdErr
	}

	response, err := c.auth.VerifyAuthenticationResponse([]byte(token))
	if err != nil {
		logutil.LogError(logger, CommandName, VerifyResponseCommandMethod, err.Error())

		return newError(VerifyResponseErrorCode, err)
	}

	command.WriteNillableResponse(rw, response, logger)

	logutil.LogDebug(logger, CommandName, VerifyResponseCommandMethod, "success")

	return nil
}

// Exchange processes an authenticated request: it either issues an access token or hands the
// verified request to the request handler and returns the authenticated reply.
func (c *Command) Exchange(rw io.Writer, req io.Reader) command.Error {
	var args ExchangeArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, ExchangeCommandMethod, err.Error())

		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if args.Request == "" {
		logutil.LogDebug(logger, CommandName, ExchangeCommandMethod, errEmptyRequest)

		return command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyRequest))
	}

	response, cmdErr := c.ProcessExchange([]byte(args.Request))
	if cmdErr != nil {
		return cmdErr
	}

	command.WriteNillableResponse(rw, response, logger)

	return nil
}

// ProcessExchange runs the exchange on a raw request.
func (c *Command) ProcessExchange(request []byte) (*ExchangeResponse, command.Error) {
	result, err := c.auth.GetVerifiedRequest(request, true)
	if err != nil {
		logutil.LogError(logger, CommandName, ExchangeCommandMethod, err.Error())

		return nil, newError(ExchangeErrorCode, err)
	}

	event := &ExchangeEvent{State: result.State}

	if result.State == authentication.StateChallenged {
		c.notify(event)

		logutil.LogDebug(logger, CommandName, ExchangeCommandMethod, "access token issued",
			logutil.CreateKeyValueString(stateString, string(result.State)))

		return &ExchangeResponse{State: result.State, Response: string(result.AccessTokenResponse)}, nil
	}

	reply, err := c.handler(result.Request)
	if err != nil {
		logutil.LogError(logger, CommandName, ExchangeCommandMethod, err.Error())

		return nil, command.NewExecuteError(HandleRequestErrorCode, fmt.Errorf("handle request: %w", err))
	}

	response, err := c.auth.GetAuthenticatedResponse(result.Request, reply)
	if err != nil {
		logutil.LogError(logger, CommandName, ExchangeCommandMethod, err.Error())

		return nil, newError(ExchangeErrorCode, err)
	}

	event.LocalKey = result.Request.LocalKeyID
	event.RequesterKey = result.Request.RequesterPublicKey.KeyID()
	event.Nonce = result.Request.Nonce
	c.notify(event)

	logutil.LogDebug(logger, CommandName, ExchangeCommandMethod, "request verified",
		logutil.CreateKeyValueString(stateString, string(result.State)))

	return &ExchangeResponse{State: result.State, Response: string(response)}, nil
}

func (c *Command) notify(event *ExchangeEvent) {
	if c.notifier == nil {
		return
	}

	msg, err := json.Marshal(event)
	if err != nil {
		logger.Errorf("marshal exchange event: %v", err)

		return
	}

	if err = c.notifier.Notify(ExchangeTopic, msg); err != nil {
		logger.Warnf("notify exchange event: %v", err)
	}
}

func decodeToken(req io.Reader, method string) (string, command.Error) {
	var args TokenArgs

	if err := json.NewDecoder(req).Decode(&args); err != nil {
		logutil.LogInfo(logger, CommandName, method, err.Error())

		return "", command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	if args.Token == "" {
		logutil.LogDebug(logger, CommandName, method, errEmptyToken)

		return "", command.NewValidationError(InvalidRequestErrorCode, errors.New(errEmptyToken))
	}

	return args.Token, nil
}

func newError(code command.Code, err error) command.Error {
	for _, clientErr := range clientErrors {
		if errors.Is(err, clientErr) {
			return command.NewValidationError(code, err)
		}
	}

	return command.NewExecuteError(code, err)
}
