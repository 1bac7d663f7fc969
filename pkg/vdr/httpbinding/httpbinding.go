/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package httpbinding resolves DIDs through a DID resolver exposed over HTTP(s).
package httpbinding

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/trustbloc/did-auth-jose-go/pkg/common/log"
)

var logger = log.New("didauth/vdr/httpbinding")

const defaultRetryInterval = 500 * time.Millisecond

// VDR via HTTP(s) endpoint.
type VDR struct {
	endpointURL      string
	client           *http.Client
	accept           Accept
	resolveAuthToken string
	retries          uint64
	retryInterval    time.Duration
}

// Accept is method to accept did method.
type Accept func(method string) bool

// New creates new DID Resolver.
func New(endpointURL string, opts ...Option) (*VDR, error) {
	v := &VDR{
		client:        &http.Client{},
		accept:        func(method string) bool { return true },
		retryInterval: defaultRetryInterval,
	}

	for _, opt := range opts {
		opt(v)
	}

	// Validate host
	_, err := url.ParseRequestURI(endpointURL)
	if err != nil {
		return nil, fmt.Errorf("base URL invalid: %w", err)
	}

	v.endpointURL = endpointURL

	return v, nil
}

// Accept did method.
func (v *VDR) Accept(method string) bool {
	return v.accept(method)
}

// Option configures the http binding vdr.
type Option func(opts *VDR)

// WithTimeout option is for definition of HTTP(s) timeout value of DID Resolver.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *VDR) {
		opts.client.Timeout = timeout
	}
}

// WithHTTPClient option is for custom http client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(opts *VDR) {
		opts.client = httpClient
	}
}

// WithAccept option is for accept did method.
func WithAccept(accept Accept) Option {
	return func(opts *VDR) {
		opts.accept = accept
	}
}

// WithResolveAuthToken add auth token for resolve.
func WithResolveAuthToken(authToken string) Option {
	return func(opts *VDR) {
		opts.resolveAuthToken = "Bearer " + authToken
	}
}

// WithRetries retries failed resolutions up to n more times, interval apart. A 404 is never retried.
func WithRetries(n uint64, interval time.Duration) Option {
	return func(opts *VDR) {
		opts.retries = n
		opts.retryInterval = interval
	}
}

func closeResponseBody(respBody io.Closer) {
	e := respBody.Close()
	if e != nil {
		logger.Errorf("Failed to close response body: %v", e)
	}
}
