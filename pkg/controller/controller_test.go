/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/trustbloc/did-auth-jose-go/pkg/authentication"
	authcmd "github.com/trustbloc/did-auth-jose-go/pkg/controller/command/authentication"
	"github.com/trustbloc/did-auth-jose-go/pkg/doc/jose/jwk"
	mocknotifier "github.com/trustbloc/did-auth-jose-go/pkg/internal/gomocks/controller/command"
	mockvdr "github.com/trustbloc/did-auth-jose-go/pkg/mock/vdr"
)

func newAuthentication(t *testing.T) *authentication.Authentication {
	t.Helper()

	key, err := jwk.GenerateECPrivateKey("did:example:hub#keys-1")
	require.NoError(t, err)

	auth, err := authentication.New(&mockvdr.MockResolver{}, authentication.WithKeys(key))
	require.NoError(t, err)

	return auth
}

func TestGetRESTHandlers(t *testing.T) {
	t.Run("default notifier", func(t *testing.T) {
		handlers, err := GetRESTHandlers(newAuthentication(t), WithWebhookURLs("http://localhost:8080"),
			WithRequestHandler(authcmd.EchoHandler))
		require.NoError(t, err)
		require.Len(t, handlers, 6)

		paths := make([]string, 0, len(handlers))
		for _, h := range handlers {
			paths = append(paths, h.Path())
		}

		require.Contains(t, paths, wsPath)
		require.Contains(t, paths, "/authentication/exchange")
	})

	t.Run("custom notifier", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		handlers, err := GetRESTHandlers(newAuthentication(t), WithNotifier(mocknotifier.NewMockNotifier(ctrl)))
		require.NoError(t, err)
		require.Len(t, handlers, 5)
	})

	t.Run("missing authentication", func(t *testing.T) {
		_, err := GetRESTHandlers(nil)
		require.Error(t, err)
		require.Contains(t, err.Error(), "create authentication rest operation")
	})
}

func TestGetCommandHandlers(t *testing.T) {
	handlers, err := GetCommandHandlers(newAuthentication(t))
	require.NoError(t, err)
	require.Len(t, handlers, 5)

	_, err = GetCommandHandlers(nil)
	require.Error(t, err)
}
