/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package httpbinding

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
	"github.com/trustbloc/did-auth-jose-go/pkg/vdr"
)

const (
	didLDJson = "application/did+ld+json"
)

// resolveDID makes DID resolution via HTTP.
func (v *VDR) resolveDID(uri string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, uri, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("HTTP create get request failed: %w", err))
	}

	req.Header.Add("Accept", didLDJson)

	if v.resolveAuthToken != "" {
		req.Header.Add("Authorization", v.resolveAuthToken)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP Get request failed: %w", err)
	}

	defer closeResponseBody(resp.Body)

	gotBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body failed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK && strings.Contains(resp.Header.Get("Content-type"), didLDJson):
		return gotBody, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(vdr.ErrNotFound)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("DID resolver failed [%v] body [%s]", resp.StatusCode, gotBody)
	}

	return nil, backoff.Permanent(fmt.Errorf("unsupported response from DID resolver [%v] header [%s] body [%s]",
		resp.StatusCode, resp.Header.Get("Content-type"), gotBody))
}

// Resolve resolves didID with the remote resolver, retrying transport and server failures.
func (v *VDR) Resolve(didID string) (*did.DocResolution, error) {
	reqURL, err := url.ParseRequestURI(v.endpointURL)
	if err != nil {
		return nil, fmt.Errorf("url parse request uri failed: %w", err)
	}

	reqURL.Path = path.Join(reqURL.Path, didID)

	var data []byte

	err = backoff.RetryNotify(
		func() error {
			var resolveErr error
			data, resolveErr = v.resolveDID(reqURL.String())

			return resolveErr
		},
		backoff.WithMaxRetries(backoff.NewConstantBackOff(v.retryInterval), v.retries),
		func(retryErr error, t time.Duration) {
			logger.Warnf("failed to resolve %s, will sleep for %s before trying again: %s", didID, t, retryErr)
		},
	)
	if err != nil {
		return nil, unwrapPermanent(err)
	}

	if len(data) == 0 {
		return nil, vdr.ErrNotFound
	}

	documentResolution, err := did.ParseDocumentResolution(data)
	if err == nil {
		return documentResolution, nil
	}

	if !errors.Is(err, did.ErrDIDDocumentNotExist) {
		return nil, err
	}

	logger.Debugf("parse document resolution failed, parsing as document: %v", err)

	didDoc, err := did.ParseDocument(data)
	if err != nil {
		return nil, err
	}

	return &did.DocResolution{DIDDocument: didDoc}, nil
}

func unwrapPermanent(err error) error {
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return permanent.Err
	}

	return err
}
