/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"fmt"

	"github.com/trustbloc/did-auth-jose-go/pkg/authentication"
	"github.com/trustbloc/did-auth-jose-go/pkg/controller/command"
	authcmd "github.com/trustbloc/did-auth-jose-go/pkg/controller/command/authentication"
	"github.com/trustbloc/did-auth-jose-go/pkg/controller/rest"
	authrest "github.com/trustbloc/did-auth-jose-go/pkg/controller/rest/authentication"
	"github.com/trustbloc/did-auth-jose-go/pkg/controller/webnotifier"
)

type allOpts struct {
	webhookURLs    []string
	webhookOpts    []webnotifier.HTTPOption
	notifier       command.Notifier
	requestHandler authcmd.RequestHandler
}

const wsPath = "/ws"

// Opt represents a controller option.
type Opt func(opts *allOpts)

// WithWebhookURLs is an option for setting up a webhook dispatcher which will notify clients of events.
func WithWebhookURLs(webhookURLs ...string) Opt {
	return func(opts *allOpts) {
		opts.webhookURLs = webhookURLs
	}
}

// WithWebhookOptions configures the webhook dispatcher.
func WithWebhookOptions(webhookOpts ...webnotifier.HTTPOption) Opt {
	return func(opts *allOpts) {
		opts.webhookOpts = webhookOpts
	}
}

// WithNotifier is an option for setting up a notifier which will notify clients of events.
func WithNotifier(notifier command.Notifier) Opt {
	return func(opts *allOpts) {
		opts.notifier = notifier
	}
}

// WithRequestHandler sets the handler answering verified exchange requests.
func WithRequestHandler(handler authcmd.RequestHandler) Opt {
	return func(opts *allOpts) {
		opts.requestHandler = handler
	}
}

func newOpts(opts []Opt) *allOpts {
	o := &allOpts{}

	for _, opt := range opts {
		opt(o)
	}

	if o.notifier == nil {
		o.notifier = webnotifier.New(wsPath, o.webhookURLs, o.webhookOpts...)
	}

	return o
}

func (o *allOpts) commandOpts() []authcmd.Option {
	cmdOpts := []authcmd.Option{authcmd.WithNotifier(o.notifier)}

	if o.requestHandler != nil {
		cmdOpts = append(cmdOpts, authcmd.WithRequestHandler(o.requestHandler))
	}

	return cmdOpts
}

// GetRESTHandlers returns all REST handlers provided by controller.
func GetRESTHandlers(auth *authentication.Authentication, opts ...Opt) ([]rest.Handler, error) {
	restAPIOpts := newOpts(opts)

	authOp, err := authrest.New(auth, restAPIOpts.commandOpts()...)
	if err != nil {
		return nil, fmt.Errorf("create authentication rest operation : %w", err)
	}

	var allHandlers []rest.Handler
	allHandlers = append(allHandlers, authOp.GetRESTHandlers()...)

	nhp, ok := restAPIOpts.notifier.(handlerProvider)
	if ok {
		allHandlers = append(allHandlers, nhp.GetRESTHandlers()...)
	}

	return allHandlers, nil
}

type handlerProvider interface {
	GetRESTHandlers() []rest.Handler
}

// GetCommandHandlers returns all command handlers provided by controller.
func GetCommandHandlers(auth *authentication.Authentication, opts ...Opt) ([]command.Handler, error) {
	cmdOpts := newOpts(opts)

	authCmd, err := authcmd.New(auth, cmdOpts.commandOpts()...)
	if err != nil {
		return nil, fmt.Errorf("create authentication command : %w", err)
	}

	var allHandlers []command.Handler
	allHandlers = append(allHandlers, authCmd.GetHandlers()...)

	return allHandlers, nil
}
