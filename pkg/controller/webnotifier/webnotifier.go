/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trustbloc/did-auth-jose-go/pkg/common/log"
	"github.com/trustbloc/did-auth-jose-go/pkg/controller/rest"
)

var logger = log.New("didauth/webnotifier")

const (
	notificationSendTimeout = 10 * time.Second
	emptyTopicErrMsg        = "cannot notify with an empty topic"
	emptyMessageErrMsg      = "cannot notify with an empty message"
	failedToCreateErrMsg    = "failed to create topic message : %w"
)

type notifier interface {
	Notify(topic string, message []byte) error
}

// WebNotifier dispatches authentication events to webhook subscribers and websocket clients.
type WebNotifier struct {
	notifiers []notifier
	handlers  []rest.Handler
}

// New returns a WebNotifier serving websocket clients on wsPath and posting to webhookURLs.
func New(wsPath string, webhookURLs []string, opts ...HTTPOption) *WebNotifier {
	ws := NewWSNotifier(wsPath)

	return &WebNotifier{
		notifiers: []notifier{NewHTTPNotifier(webhookURLs, opts...), ws},
		handlers:  ws.GetRESTHandlers(),
	}
}

// Notify sends topic and message to every subscriber. Errors of all dispatchers are joined.
func (n *WebNotifier) Notify(topic string, message []byte) error {
	var allErrs error

	for _, notifier := range n.notifiers {
		allErrs = appendError(allErrs, notifier.Notify(topic, message))
	}

	return allErrs
}

// GetRESTHandlers returns the websocket handler.
func (n *WebNotifier) GetRESTHandlers() []rest.Handler {
	return n.handlers
}

// PrepareTopicMessage wraps message in a topic envelope with a fresh id.
func PrepareTopicMessage(topic string, message []byte) ([]byte, error) {
	topicMsg := struct {
		ID      string          `json:"id"`
		Topic   string          `json:"topic"`
		Message json.RawMessage `json:"message"`
	}{
		ID:      uuid.New().String(),
		Topic:   topic,
		Message: message,
	}

	return json.Marshal(topicMsg)
}

func appendError(errToAppendTo, err error) error {
	if errToAppendTo == nil {
		return err
	}

	if err == nil {
		return errToAppendTo
	}

	return fmt.Errorf("%v;%w", errToAppendTo, err)
}
