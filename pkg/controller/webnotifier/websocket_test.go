/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

const (
	wsPath        = "/ws"
	exchangeTopic = "didauth_exchange"
)

func TestWSSubscriberLifecycle(t *testing.T) {
	n := NewWSNotifier(wsPath)
	url := startWSListener(t, n)

	require.Zero(t, n.subscriberCount())

	t.Run("normal closure", func(t *testing.T) {
		conn := dial(t, url)
		waitForSubscribers(t, n, 1)

		require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
		waitForSubscribers(t, n, 0)
	})

	t.Run("abnormal closure", func(t *testing.T) {
		conn := dial(t, url)
		waitForSubscribers(t, n, 1)

		require.NoError(t, conn.Close(websocket.StatusInternalError, "broken"))
		waitForSubscribers(t, n, 0)
	})

	t.Run("client sends a message", func(t *testing.T) {
		conn := dial(t, url)
		waitForSubscribers(t, n, 1)

		require.NoError(t, conn.Write(context.Background(), websocket.MessageText, []byte("hello")))
		waitForSubscribers(t, n, 0)
	})

	t.Run("several clients", func(t *testing.T) {
		first := dial(t, url)
		second := dial(t, url)
		waitForSubscribers(t, n, 2)

		require.NoError(t, first.Close(websocket.StatusNormalClosure, "done"))
		waitForSubscribers(t, n, 1)

		require.NoError(t, second.Close(websocket.StatusNormalClosure, ""))
		waitForSubscribers(t, n, 0)
	})
}

func TestWSNotify(t *testing.T) {
	n := NewWSNotifier(wsPath)
	url := startWSListener(t, n)

	t.Run("no subscribers", func(t *testing.T) {
		require.NoError(t, n.Notify(exchangeTopic, []byte(`{"state":"verified"}`)))
	})

	t.Run("events arrive in order", func(t *testing.T) {
		conn := dial(t, url)
		waitForSubscribers(t, n, 1)

		events := []string{
			`{"state":"challenged","nonce":"n-1"}`,
			`{"state":"verified","nonce":"n-1"}`,
			`{"state":"challenged","nonce":"n-2"}`,
		}

		for _, e := range events {
			require.NoError(t, n.Notify(exchangeTopic, []byte(e)))
		}

		for _, e := range events {
			topic, message := readTopicMessage(t, conn)
			require.Equal(t, exchangeTopic, topic)
			require.JSONEq(t, e, string(message))
		}

		require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
		waitForSubscribers(t, n, 0)
	})

	t.Run("topic filter", func(t *testing.T) {
		filtered := dial(t, url+"?topic="+exchangeTopic)
		all := dial(t, url)
		waitForSubscribers(t, n, 2)

		require.NoError(t, n.Notify("other", []byte(`"other"`)))
		require.NoError(t, n.Notify(exchangeTopic, []byte(`"exchange"`)))

		topic, _ := readTopicMessage(t, all)
		require.Equal(t, "other", topic)

		topic, _ = readTopicMessage(t, all)
		require.Equal(t, exchangeTopic, topic)

		topic, message := readTopicMessage(t, filtered)
		require.Equal(t, exchangeTopic, topic)
		require.Equal(t, `"exchange"`, string(message))

		require.NoError(t, filtered.Close(websocket.StatusNormalClosure, ""))
		require.NoError(t, all.Close(websocket.StatusNormalClosure, ""))
		waitForSubscribers(t, n, 0)
	})

	t.Run("invalid input", func(t *testing.T) {
		require.EqualError(t, n.Notify("", []byte(`"x"`)), emptyTopicErrMsg)
		require.EqualError(t, n.Notify(exchangeTopic, nil), emptyMessageErrMsg)
	})
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(context.Background(), url, nil) //nolint:bodyclose
	require.NoError(t, err)

	return conn
}

func readTopicMessage(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	msgType, payload, err := conn.Read(ctx)
	require.NoError(t, err)
	require.Equal(t, websocket.MessageText, msgType)

	var topic struct {
		ID      string          `json:"id"`
		Topic   string          `json:"topic"`
		Message json.RawMessage `json:"message"`
	}
	require.NoError(t, json.Unmarshal(payload, &topic))
	require.NotEmpty(t, topic.ID)

	return topic.Topic, topic.Message
}

func waitForSubscribers(t *testing.T, n *WSNotifier, expected int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return n.subscriberCount() == expected
	}, time.Second, 20*time.Millisecond)
}

// startWSListener returns the ws:// url of the notifier's handler.
func startWSListener(t *testing.T, n *WSNotifier) string {
	t.Helper()

	handler := n.GetRESTHandlers()[0]

	router := mux.NewRouter()
	router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return "ws://" + strings.TrimPrefix(srv.URL, "http://") + handler.Path()
}
