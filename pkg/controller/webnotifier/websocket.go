/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"nhooyr.io/websocket"

	"github.com/trustbloc/did-auth-jose-go/pkg/controller/internal/cmdutil"
	"github.com/trustbloc/did-auth-jose-go/pkg/controller/rest"
)

// topicQueryParam restricts a websocket subscriber to the listed topics, e.g. /ws?topic=didauth_exchange.
const topicQueryParam = "topic"

type subscriber struct {
	conn   *websocket.Conn
	topics map[string]struct{}
}

func (s *subscriber) wants(topic string) bool {
	if len(s.topics) == 0 {
		return true
	}

	_, ok := s.topics[topic]

	return ok
}

// WSNotifier pushes topic messages to connected websocket clients.
type WSNotifier struct {
	subscribers []*subscriber
	mu          sync.RWMutex
	handlers    []rest.Handler
}

// NewWSNotifier returns a WSNotifier accepting clients on path.
func NewWSNotifier(path string) *WSNotifier {
	n := &WSNotifier{}

	n.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(path, http.MethodGet, n.handleWS),
	}

	return n
}

// Notify writes the topic message to every client subscribed to topic.
// Errors of individual clients are joined.
func (n *WSNotifier) Notify(topic string, message []byte) error {
	if topic == "" {
		return errors.New(emptyTopicErrMsg)
	}

	if len(message) == 0 {
		return errors.New(emptyMessageErrMsg)
	}

	n.mu.RLock()

	var conns []*websocket.Conn

	for _, s := range n.subscribers {
		if s.wants(topic) {
			conns = append(conns, s.conn)
		}
	}

	n.mu.RUnlock()

	if len(conns) == 0 {
		return nil
	}

	topicMsg, err := PrepareTopicMessage(topic, message)
	if err != nil {
		return fmt.Errorf(failedToCreateErrMsg, err)
	}

	var allErrs error

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), notificationSendTimeout)
		allErrs = appendError(allErrs, conn.Write(ctx, websocket.MessageText, topicMsg))

		cancel()
	}

	return allErrs
}

func (n *WSNotifier) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		logger.Infof("failed to upgrade the websocket notification connection : %v", err)

		return
	}

	s := &subscriber{conn: conn, topics: map[string]struct{}{}}
	for _, topic := range r.URL.Query()[topicQueryParam] {
		s.topics[topic] = struct{}{}
	}

	n.mu.Lock()
	n.subscribers = append(n.subscribers, s)
	n.mu.Unlock()

	logger.Debugf("websocket notification client connected, topics=%d", len(s.topics))

	n.await(r.Context(), s)
}

// await blocks until the client goes away. Subscribers only listen, so anything they send
// ends the subscription.
func (n *WSNotifier) await(ctx context.Context, s *subscriber) {
	_, _, err := s.conn.Reader(ctx)
	if err != nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		logger.Infof("reading from websocket notification client failed: %v", err)
	}

	n.remove(s)

	if err = s.conn.Close(websocket.StatusPolicyViolation, "unexpected message"); err != nil {
		logger.Debugf("closing websocket notification client failed: %v", err)
	}
}

func (n *WSNotifier) remove(s *subscriber) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, c := range n.subscribers {
		if c == s {
			n.subscribers = append(n.subscribers[:i], n.subscribers[i+1:]...)

			break
		}
	}

	logger.Debugf("websocket notification client dropped")
}

func (n *WSNotifier) subscriberCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return len(n.subscribers)
}

// GetRESTHandlers returns the websocket upgrade handler.
func (n *WSNotifier) GetRESTHandlers() []rest.Handler {
	return n.handlers
}
