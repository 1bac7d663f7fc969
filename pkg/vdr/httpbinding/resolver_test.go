/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package httpbinding

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
	"github.com/trustbloc/did-auth-jose-go/pkg/vdr"
)

const doc = `{
  "@context": ["https://w3id.org/did/v1"],
  "id": "did:example:334455",
  "publicKey": [
    {
      "id": "did:example:334455#keys-1",
      "type": "Secp256k1VerificationKey2018",
      "controller": "did:example:334455",
      "publicKeyHex": "02b97c30de767f084ce3080168ee293053ba33b235d7116a3263d29f1450936b71"
    }
  ]
}`

const didResolutionData = `{
  "@context": "https://w3id.org/did-resolution/v1",
  "didDocument": ` + doc + `
}`

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/did:example:334455", req.URL.String())
		require.Equal(t, didLDJson, req.Header.Get("Accept"))
		res.Header().Add("Content-type", didLDJson)
		res.WriteHeader(status)
		_, err := res.Write([]byte(body))
		require.NoError(t, err)
	}))
}

func TestNew(t *testing.T) {
	t.Run("test new with no options", func(t *testing.T) {
		_, err := New("https://uniresolver.io/")
		require.NoError(t, err)
	})

	t.Run("test new with all options are applied", func(t *testing.T) {
		i := 0
		_, err := New("https://uniresolver.io/",
			func(opts *VDR) {
				i++
			},
			func(opts *VDR) {
				i += 2
			},
		)
		require.NoError(t, err)
		require.Equal(t, 1+2, i)
	})

	t.Run("test new with invalid url", func(t *testing.T) {
		_, err := New("invalid url")
		require.Error(t, err)
		require.Contains(t, err.Error(), "base URL invalid")
	})

	t.Run("accept", func(t *testing.T) {
		r, err := New("https://uniresolver.io/")
		require.NoError(t, err)
		require.True(t, r.Accept("example"))

		r, err = New("https://uniresolver.io/", WithAccept(func(method string) bool {
			return method == "web"
		}))
		require.NoError(t, err)
		require.False(t, r.Accept("example"))
		require.True(t, r.Accept("web"))
	})

	t.Run("timeout", func(t *testing.T) {
		r, err := New("https://uniresolver.io/", WithHTTPClient(&http.Client{}), WithTimeout(time.Second))
		require.NoError(t, err)
		require.Equal(t, time.Second, r.client.Timeout)
	})
}

func TestResolve(t *testing.T) {
	t.Run("test success return did doc", func(t *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			require.Equal(t, "Bearer tk1", req.Header.Get("Authorization"))
			res.Header().Add("Content-type", didLDJson)
			res.WriteHeader(http.StatusOK)
			_, err := res.Write([]byte(doc))
			require.NoError(t, err)
		}))

		defer func() { testServer.Close() }()

		resolver, err := New(testServer.URL, WithResolveAuthToken("tk1"))
		require.NoError(t, err)

		gotDocument, err := resolver.Resolve("did:example:334455")
		require.NoError(t, err)
		require.Equal(t, "did:example:334455", gotDocument.DIDDocument.ID)
		require.Len(t, gotDocument.DIDDocument.PublicKey, 1)
	})

	t.Run("test success return did resolution", func(t *testing.T) {
		testServer := newServer(t, http.StatusOK, didResolutionData)
		defer func() { testServer.Close() }()

		resolver, err := New(testServer.URL)
		require.NoError(t, err)

		gotDocument, err := resolver.Resolve("did:example:334455")
		require.NoError(t, err)

		didDoc, err := did.ParseDocument([]byte(doc))
		require.NoError(t, err)
		require.Equal(t, didDoc.ID, gotDocument.DIDDocument.ID)
	})

	t.Run("test empty doc", func(t *testing.T) {
		testServer := newServer(t, http.StatusOK, "")
		defer func() { testServer.Close() }()

		resolver, err := New(testServer.URL)
		require.NoError(t, err)

		_, err = resolver.Resolve("did:example:334455")
		require.True(t, errors.Is(err, vdr.ErrNotFound))
	})

	t.Run("test invalid doc", func(t *testing.T) {
		testServer := newServer(t, http.StatusOK, `{"id":"not a did"}`)
		defer func() { testServer.Close() }()

		resolver, err := New(testServer.URL)
		require.NoError(t, err)

		_, err = resolver.Resolve("did:example:334455")
		require.Error(t, err)
	})
}

func TestResolve_DIDDocWithBasePath(t *testing.T) {
	for _, base := range []string{"/document", "/document/"} {
		testServer := httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			require.Equal(t, "/document/did:example:334455", req.URL.String())
			res.Header().Add("Content-type", didLDJson)
			res.WriteHeader(http.StatusOK)
			_, err := res.Write([]byte(doc))
			require.NoError(t, err)
		}))

		resolver, err := New(testServer.URL + base)
		require.NoError(t, err)

		gotDocument, err := resolver.Resolve("did:example:334455")
		require.NoError(t, err)
		require.Equal(t, "did:example:334455", gotDocument.DIDDocument.ID)

		testServer.Close()
	}
}

func TestResolve_DIDDocNotFound(t *testing.T) {
	var calls int32

	testServer := httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&calls, 1)
		res.WriteHeader(http.StatusNotFound)
	}))

	defer func() { testServer.Close() }()

	resolver, err := New(testServer.URL, WithRetries(3, time.Millisecond))
	require.NoError(t, err)

	_, err = resolver.Resolve("did:example:334455")
	require.Equal(t, vdr.ErrNotFound, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResolve_UnsupportedStatus(t *testing.T) {
	testServer := httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		res.WriteHeader(http.StatusForbidden)
	}))

	defer func() { testServer.Close() }()

	resolver, err := New(testServer.URL, WithRetries(3, time.Millisecond))
	require.NoError(t, err)

	_, err = resolver.Resolve("did:example:334455")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported response from DID resolver")
}

func TestResolve_Retries(t *testing.T) {
	t.Run("server errors are retried", func(t *testing.T) {
		var calls int32

		testServer := httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				res.WriteHeader(http.StatusServiceUnavailable)

				return
			}

			res.Header().Add("Content-type", didLDJson)
			res.WriteHeader(http.StatusOK)
			_, err := res.Write([]byte(doc))
			require.NoError(t, err)
		}))

		defer func() { testServer.Close() }()

		resolver, err := New(testServer.URL, WithRetries(2, time.Millisecond))
		require.NoError(t, err)

		gotDocument, err := resolver.Resolve("did:example:334455")
		require.NoError(t, err)
		require.Equal(t, "did:example:334455", gotDocument.DIDDocument.ID)
		require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("no retries by default", func(t *testing.T) {
		var calls int32

		testServer := httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
			atomic.AddInt32(&calls, 1)
			res.WriteHeader(http.StatusInternalServerError)
		}))

		defer func() { testServer.Close() }()

		resolver, err := New(testServer.URL)
		require.NoError(t, err)

		_, err = resolver.Resolve("did:example:334455")
		require.Error(t, err)
		require.Contains(t, err.Error(), "DID resolver failed")
		require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("transport failure", func(t *testing.T) {
		testServer := httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {}))
		url := testServer.URL
		testServer.Close()

		resolver, err := New(url, WithRetries(1, time.Millisecond))
		require.NoError(t, err)

		_, err = resolver.Resolve("did:example:334455")
		require.Error(t, err)
		require.Contains(t, err.Error(), "HTTP Get request failed")
	})
}
