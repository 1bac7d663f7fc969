/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vdr

import (
	"errors"
	"fmt"

	"github.com/trustbloc/did-auth-jose-go/pkg/doc/did"
)

// Option is a vdr registry option.
type Option func(opts *Registry)

// Registry dispatches resolution to the resolver registered for the DID's method.
type Registry struct {
	methods  map[string]Resolver
	fallback Resolver
}

// NewRegistry returns a new Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{methods: map[string]Resolver{}}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// WithResolver registers resolver for a DID method. An empty method or "*" registers the
// resolver used for methods with no resolver of their own.
func WithResolver(method string, resolver Resolver) Option {
	return func(opts *Registry) {
		if method == "" || method == "*" {
			opts.fallback = resolver

			return
		}

		opts.methods[method] = resolver
	}
}

// Resolve did document.
func (r *Registry) Resolve(didID string) (*did.DocResolution, error) {
	didMethod, err := GetDidMethod(didID)
	if err != nil {
		return nil, err
	}

	method, err := r.resolveVDR(didMethod)
	if err != nil {
		return nil, err
	}

	docResolution, err := method.Resolve(didID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("did method read failed: %w", err)
	}

	return docResolution, nil
}

func (r *Registry) resolveVDR(method string) (Resolver, error) {
	if v, ok := r.methods[method]; ok {
		return v, nil
	}

	if r.fallback != nil {
		return r.fallback, nil
	}

	return nil, fmt.Errorf("did method %s not supported for vdr", method)
}
